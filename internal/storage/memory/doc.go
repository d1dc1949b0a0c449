// Package memory provides a volatile storage.KVEngine.
//
// Values live in a sharded map and vanish when the process exits. The
// engine is used for tests and for deployments that keep profiles only
// for the lifetime of the server.
package memory
