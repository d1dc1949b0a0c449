// Package httpserver provides the HTTP/HTTPS server of lwm2m-seccfg.
//
// Routes come from the handler package; this package wraps them:
//
//   - Global middleware: Recover, RequestID, CORS, RateLimit (per client IP)
//   - Per route: Instrument (Prometheus), Auth (API key role), Audit
//   - Optional TLS with timeouts from configuration
package httpserver
