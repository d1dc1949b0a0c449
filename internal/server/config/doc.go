// Package config defines the lwm2m-seccfg-server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values
//   - verify.go: validation run after loading
//   - sanitize.go: copy with secrets masked, for logging
//
// Values are loaded by internal/infra/confloader from a YAML file and
// LWM2MSECCFG_ environment variables on top of Default().
package config
