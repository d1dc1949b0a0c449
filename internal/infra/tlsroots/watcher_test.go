package tlsroots

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, _ := writeKeyPair(t, dir, "first")

	t.Run("loads pair", func(t *testing.T) {
		w, err := NewWatcher(certFile, keyFile)
		if err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		cert, err := w.GetCertificate(nil)
		if err != nil || cert == nil {
			t.Fatalf("GetCertificate() = %v, %v", cert, err)
		}
		if cert.Leaf == nil || cert.Leaf.Subject.CommonName != "first" {
			t.Errorf("leaf = %+v", cert.Leaf)
		}
	})

	t.Run("missing files", func(t *testing.T) {
		if _, err := NewWatcher(filepath.Join(dir, "nope.crt"), keyFile); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.crt")
		if err := os.WriteFile(bad, []byte("invalid"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewWatcher(bad, keyFile); err == nil {
			t.Error("expected error")
		}
	})
}

func TestWatcher_ReloadKeepsPreviousOnError(t *testing.T) {
	certFile, keyFile, _ := writeKeyPair(t, t.TempDir(), "first")
	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	before := w.Certificate()

	if err := os.WriteFile(certFile, []byte("truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); err == nil {
		t.Fatal("Reload() should fail on a broken certificate")
	}
	if w.Certificate() != before {
		t.Error("failed reload replaced the served certificate")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, _ := writeKeyPair(t, dir, "first")

	w, err := NewWatcher(certFile, keyFile, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	<-w.Reloaded() // initial load

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	writeKeyPair(t, dir, "second")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-w.Reloaded():
			if w.Certificate().Leaf.Subject.CommonName == "second" {
				return
			}
		case <-deadline:
			t.Fatalf("certificate not reloaded, serving %q", w.Certificate().Leaf.Subject.CommonName)
		}
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	certFile, keyFile, _ := writeKeyPair(t, t.TempDir(), "first")
	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_StartMissingDir(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, _ := writeKeyPair(t, dir, "first")
	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.certFile = filepath.Join(dir, "gone", "server.crt")
	if err := w.Start(); err == nil {
		t.Error("Start() should fail when a directory is missing")
	}
}
