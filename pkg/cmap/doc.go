// Package cmap provides a string-keyed concurrent map split into
// independently locked shards.
//
// Keys are routed to shards by their murmur3 hash. Reads take the shard
// read lock; writes take the shard write lock. Iteration visits one shard
// at a time, so a callback never observes a partially written entry but
// may miss entries written to other shards during the walk.
//
// Usage:
//
//	m := cmap.New[*editSession]()
//	m.Set("lwes-01J...", s)
//	s, ok := m.Get("lwes-01J...")
package cmap
