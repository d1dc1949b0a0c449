// Package connection is the HTTP client lwm2m-seccfg-cli uses to talk to
// lwm2m-seccfg-server. It adds API key headers and unwraps the server's
// response envelope.
package connection
