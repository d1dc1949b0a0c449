// Package main provides the entry point for lwm2m-seccfg-server.
//
// lwm2m-seccfg-server serves LwM2M device security configuration over
// HTTP: per-mode defaults, validation policy, bootstrap server info, the
// object model catalog, stored device profiles and edit sessions.
//
// Usage:
//
//	lwm2m-seccfg-server -config /etc/lwm2m-seccfg/server.yaml
//
// Every setting can be overridden by an LWM2MSECCFG_ environment variable,
// for example LWM2MSECCFG_SERVER_HTTP_ADDR=:9090.
package main
