// Package domain defines the LwM2M device security configuration model.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - SecurityMode: the NO_SEC, PSK, RPK and X509 credential schemes
//   - SecurityConfig / ProfileConfig: the bootstrap document and its parts
//   - ClientSecurityConfig: the client credential variant, keyed by mode
//   - Defaults: the default-config factory and per-mode port selection
//   - Policy: per-mode credential rules, one table for servers and one for the client
//   - ObjectLwM2M: object model catalog entries
//   - Errors: domain-specific error definitions
//
// Documents are validated with struct tags plus the credential tables.
package domain
