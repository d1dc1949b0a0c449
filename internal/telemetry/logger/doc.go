// Package logger provides structured logging on log/slog.
//
//   - logger.go: construction from the log section and the package default
//   - context.go: request, edit session and profile ids carried in a context
//   - redact.go: masking of key material and API key secrets
//
// Attributes whose key names suggest key material (secret, key, identity,
// private, passphrase, password, token) are replaced before they reach the
// handler. API key secrets (lwas_ prefix) are partially masked wherever
// they appear.
package logger
