package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/pkg/cmap"
)

// Engine is an in-process storage.KVEngine.
type Engine struct {
	items  *cmap.Map[[]byte]
	closed atomic.Bool
	lastGC atomic.Int64
}

var _ storage.KVEngine = (*Engine)(nil)

// New creates an empty engine.
func New() *Engine {
	return &Engine{items: cmap.New[[]byte]()}
}

// snapshotEntry is one record of the snapshot stream.
type snapshotEntry struct {
	Key   string `json:"k"`
	Value []byte `json:"v"`
}

func (e *Engine) check(ctx context.Context) error {
	if e.closed.Load() {
		return storage.ErrClosed
	}
	return ctx.Err()
}

// Get returns a copy of the value stored under key.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	v, ok := e.items.Get(string(key))
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value under key.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.items.Set(string(key), bytes.Clone(value))
	return nil
}

// Delete removes key.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.items.Delete(string(key))
	return nil
}

// Scan visits keys starting with prefix in ascending order.
func (e *Engine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	for _, k := range e.items.SortedKeys(string(prefix)) {
		v, ok := e.items.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			return nil
		}
	}
	return nil
}

// SaveSnapshot encodes every entry as a JSON stream.
func (e *Engine) SaveSnapshot(ctx context.Context) (io.ReadCloser, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, k := range e.items.SortedKeys("") {
		v, ok := e.items.Get(k)
		if !ok {
			continue
		}
		if err := enc.Encode(snapshotEntry{Key: k, Value: v}); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}
	return io.NopCloser(&buf), nil
}

// LoadSnapshot replaces the contents with the entries read from r.
// The engine is left unchanged when the stream is malformed.
func (e *Engine) LoadSnapshot(ctx context.Context, r io.Reader) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	loaded := make(map[string][]byte)
	dec := json.NewDecoder(r)
	for {
		var entry snapshotEntry
		err := dec.Decode(&entry)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		loaded[entry.Key] = entry.Value
	}

	e.items.Clear()
	for k, v := range loaded {
		e.items.Set(k, v)
	}
	return nil
}

// GC is a no-op; it only records the run time.
func (e *Engine) GC(ctx context.Context) (uint64, error) {
	if err := e.check(ctx); err != nil {
		return 0, err
	}
	e.lastGC.Store(time.Now().UnixMilli())
	return 0, nil
}

// Stats reports the key count and the summed key and value sizes.
func (e *Engine) Stats(ctx context.Context) (*storage.KVStats, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	stats := &storage.KVStats{LastGCTime: e.lastGC.Load()}
	e.items.Range(func(k string, v []byte) bool {
		stats.TotalKeys++
		stats.TotalSize += uint64(len(k) + len(v))
		return true
	})
	return stats, nil
}

// Close drops all data. Later calls fail with storage.ErrClosed.
func (e *Engine) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		e.items.Clear()
	}
	return nil
}
