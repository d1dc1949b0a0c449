// Package handler implements the HTTP endpoints of the security config
// service.
//
//   - health.go: liveness, readiness and metrics
//   - config.go: defaults, credential policy and bootstrap server config
//   - objects.go: LwM2M object model catalog
//   - profile.go: stored security documents
//   - editor.go: edit sessions of the security dialog
//   - admin.go: backup and restore
//
// Every handler follows the same steps: decode and validate the request,
// call one service, write the response envelope. Domain errors map to HTTP
// status codes through StatusForCode.
package handler
