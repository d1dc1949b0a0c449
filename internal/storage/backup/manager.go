package backup

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/yndnr/lwm2m-seccfg/internal/storage"
)

// Manager runs backups and restores of one engine with fixed options.
// Restores are serialised against each other and against backups.
type Manager struct {
	kv   storage.KVEngine
	opts Options
	mu   sync.Mutex
}

// NewManager validates opts and returns a Manager for kv.
func NewManager(kv storage.KVEngine, opts Options) (*Manager, error) {
	if len(opts.Passphrase) > 0 && len(opts.Passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if _, err := ParseCipher(string(opts.Cipher)); err != nil {
		return nil, err
	}
	return &Manager{kv: kv, opts: opts}, nil
}

// Encrypted reports whether archives are sealed.
func (m *Manager) Encrypted() bool {
	return len(m.opts.Passphrase) > 0
}

// Backup builds an archive in memory and returns it with its Info, so
// callers can send the checksum before the body.
func (m *Manager) Backup(ctx context.Context) ([]byte, *Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var buf bytes.Buffer
	info, err := Write(ctx, &buf, m.kv, m.opts)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), info, nil
}

// Restore replaces the engine contents with the archive read from r.
func (m *Manager) Restore(ctx context.Context, r io.Reader) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Restore(ctx, r, m.kv, m.opts)
}
