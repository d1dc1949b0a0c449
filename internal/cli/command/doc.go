// Package command defines the lwm2m-seccfg-cli commands on urfave/cli/v2.
//
// Every remote command resolves its server from the --server flag, then the
// current saved connection, then the configured default, and renders its
// result in the format chosen by --output.
package command
