// Package tlsroots loads TLS material for the HTTP API.
//
//   - roots.go: trust pools built from the system roots and custom CA files,
//     used by the CLI to reach servers with private certificates and by the
//     server to verify client certificates
//   - watcher.go: server certificate hot reload via fsnotify, so a rotated
//     key pair is served without a restart
package tlsroots
