// Package metric holds the Prometheus registry of lwm2m-seccfg-server.
//
// Registry owns its own prometheus.Registry (plus Go and process
// collectors) so tests can create independent instances. It implements
// the editor metrics hooks of the service layer directly, and storage
// engines attach their gauges through Prometheus().
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
