// Package storage persists security-config documents.
//
// Documents are stored as JSON values in an embedded key-value engine:
//
//   - KVEngine: the engine abstraction (Badger on disk, or the in-process
//     engine from package memory)
//   - ProfileStore: document repository on top of any KVEngine, keys are
//     "profile/<id>"
//
// The Badger engine runs periodic value-log GC and exposes its sizes as
// Prometheus gauges.
package storage
