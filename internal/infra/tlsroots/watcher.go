package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor or cert-manager
// emits when replacing a key pair.
const DefaultDebounce = 200 * time.Millisecond

// Watcher serves the current key pair and reloads it when the files change.
type Watcher struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	reloads  chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long to wait for a quiet period before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher loads the key pair. It fails when the pair cannot be loaded.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
		reloads:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Reload reads the key pair from disk. On failure the previous pair stays
// in service.
func (w *Watcher) Reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
		}
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	if cert.Leaf != nil {
		w.logger.Info("TLS certificate loaded",
			"cert_file", w.certFile,
			"subject", cert.Leaf.Subject.CommonName,
			"not_after", cert.Leaf.NotAfter.Format(time.RFC3339),
		)
		if time.Until(cert.Leaf.NotAfter) < 7*24*time.Hour {
			w.logger.Warn("TLS certificate expires soon",
				"cert_file", w.certFile,
				"not_after", cert.Leaf.NotAfter.Format(time.RFC3339),
			)
		}
	}
	select {
	case w.reloads <- struct{}{}:
	default:
	}
	return nil
}

// Certificate returns the key pair currently served.
func (w *Watcher) Certificate() *tls.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert
}

// GetCertificate implements tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return w.Certificate(), nil
}

// ServerConfig returns a server TLS config backed by w. A non-nil clientCAs
// makes the server verify client certificates that are presented; clients
// without one still reach the API key check.
func (w *Watcher) ServerConfig(clientCAs *Pool) *tls.Config {
	cfg := &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs.Pool()
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return cfg
}

// Start watches the directories holding the key pair. Directories are
// watched instead of files so that atomic renames are seen.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	dirs := []string{filepath.Dir(w.certFile)}
	if d := filepath.Dir(w.keyFile); d != dirs[0] {
		dirs = append(dirs, d)
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", d, err)
		}
	}
	w.fsw = fsw

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	names := map[string]bool{
		filepath.Clean(w.certFile): true,
		filepath.Clean(w.keyFile):  true,
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !names[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error("TLS certificate reload failed", "error", err)
				}
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("TLS watcher error", "error", err)
		}
	}
}

// Reloaded delivers a value after each successful load, including the
// initial one. It has a buffer of one.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloads
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			w.fsw.Close()
		}
	})
}
