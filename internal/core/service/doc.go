// Package service provides the application services of the security
// configuration server.
//
// This package contains:
//
//   - ProfileService: stored security documents, validated on write
//   - BootstrapService: server-side security info built from transport config
//   - EditorService: server-held edit sessions around editor.Session
//   - ObjectService: the LwM2M object model catalog
//   - AuthService: API key authentication and role checks
//
// Services define the storage interfaces they depend on and are safe for
// concurrent use.
package service
