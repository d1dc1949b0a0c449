// Package main provides the entry point for lwm2m-seccfg-cli.
//
// The CLI talks to lwm2m-seccfg-server for:
//
//   - Security mode defaults, validation policy and bootstrap server info
//   - Object model catalog browsing
//   - Device profile storage and document validation
//   - Backup and restore of profile storage
//
// API keys for the server configuration are generated offline.
//
// Usage:
//
//	lwm2m-seccfg-cli [global flags] command [flags] [args]
//	lwm2m-seccfg-cli connect lab http://localhost:8080
//	lwm2m-seccfg-cli -o json defaults --mode PSK --endpoint dev-1
//	lwm2m-seccfg-cli shell
package main
