package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	checks := []func(*ServerConfig) error{
		verifyServer,
		verifyStorage,
		verifyTransport,
		verifyEditor,
		verifySecurity,
		verifyLog,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func verifyServer(cfg *ServerConfig) error {
	h := cfg.Server.HTTP
	if _, _, err := net.SplitHostPort(h.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if (h.TLSCertFile == "") != (h.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if h.TLSClientCAFile != "" && h.TLSCertFile == "" {
		return errors.New("server.http.tls_client_ca_file requires tls_cert_file and tls_key_file")
	}
	for _, f := range []string{h.TLSCertFile, h.TLSKeyFile, h.TLSClientCAFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *ServerConfig) error {
	s := cfg.Storage
	switch s.Engine {
	case storage.EngineMemory:
	case storage.EngineBadger:
		if s.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger engine")
		}
		if err := os.MkdirAll(s.DataDir, 0o750); err != nil {
			return errors.New("cannot create data directory: " + err.Error())
		}
		if s.GCInterval != "" {
			if _, err := time.ParseDuration(s.GCInterval); err != nil {
				return fmt.Errorf("storage.gc_interval: %w", err)
			}
		}
	default:
		return fmt.Errorf("storage.engine must be %q or %q, got %q", storage.EngineBadger, storage.EngineMemory, s.Engine)
	}

	if _, err := backup.ParseCipher(s.Backup.Cipher); err != nil {
		return fmt.Errorf("storage.backup.cipher: %w", err)
	}
	if s.Backup.Passphrase != "" && len(s.Backup.Passphrase) < backup.MinPassphraseLength {
		return fmt.Errorf("storage.backup.passphrase must be at least %d characters", backup.MinPassphraseLength)
	}
	return nil
}

func verifyTransport(cfg *ServerConfig) error {
	for name, t := range map[string]TransportConfig{
		"transport.bootstrap": cfg.Transport.Bootstrap,
		"transport.server":    cfg.Transport.Server,
	} {
		for field, port := range map[string]int{
			"bind_port":             t.BindPort,
			"secure.bind_port":      t.Secure.BindPort,
			"secure.bind_port_cert": t.Secure.BindPortCert,
		} {
			if port < 0 || port > 65535 {
				return fmt.Errorf("%s.%s out of range: %d", name, field, port)
			}
		}
		if (t.Secure.PublicX == "") != (t.Secure.PublicY == "") {
			return fmt.Errorf("%s.secure.public_x and public_y must be set together", name)
		}
	}
	// Decodes both public keys.
	if _, err := service.NewBootstrapService(cfg.BootstrapConfig()); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	return nil
}

func verifyEditor(cfg *ServerConfig) error {
	e := cfg.Editor
	if e.SessionTTL <= 0 {
		return errors.New("editor.session_ttl must be positive")
	}
	if e.SweepInterval <= 0 {
		return errors.New("editor.sweep_interval must be positive")
	}
	if e.MaxSessions < 1 {
		return errors.New("editor.max_sessions must be at least 1")
	}
	return nil
}

func verifySecurity(cfg *ServerConfig) error {
	if cfg.Security.RateLimit < 0 {
		return errors.New("security.rate_limit must not be negative")
	}
	if _, err := service.NewAuthService(cfg.Security.APIKeys); err != nil {
		return fmt.Errorf("security.api_keys: %w", err)
	}
	if len(cfg.Security.APIKeys) == 0 && !isLoopback(cfg.Server.HTTP.Addr) {
		return fmt.Errorf("security.api_keys: required when server.http.addr %q is not loopback", cfg.Server.HTTP.Addr)
	}
	return nil
}

// isLoopback reports whether addr only listens on a loopback interface.
// An empty host binds every interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func verifyLog(cfg *ServerConfig) error {
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logger.ParseFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}
