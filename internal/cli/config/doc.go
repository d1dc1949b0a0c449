// Package config holds the lwm2m-seccfg-cli settings file
// (~/.lwm2m-seccfg/cli.yaml): the default output format and named server
// connections, one of which may be current.
package config
