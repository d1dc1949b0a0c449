package config

import (
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// ServerConfig is the root configuration for lwm2m-seccfg-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	Transport TransportSection `koanf:"transport"`
	Models    ModelsSection    `koanf:"models"`
	Editor    EditorSection    `koanf:"editor"`
	Security  SecuritySection  `koanf:"security"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	// TLSClientCAFile enables verification of client certificates that
	// are presented. API keys are still required.
	TLSClientCAFile string        `koanf:"tls_client_ca_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures profile persistence.
type StorageSection struct {
	// Engine is "badger" or "memory".
	Engine     string        `koanf:"engine"`
	DataDir    string        `koanf:"data_dir"`
	GCInterval string        `koanf:"gc_interval"`
	Backup     BackupSection `koanf:"backup"`
}

// BackupSection configures backup archives. An empty passphrase writes
// unencrypted archives.
type BackupSection struct {
	Passphrase string `koanf:"passphrase"`
	Cipher     string `koanf:"cipher"`
}

// TransportSection describes the CoAP listeners of the LwM2M bootstrap
// server and the LwM2M server. They are only reported to clients, this
// service does not bind them.
type TransportSection struct {
	Bootstrap TransportConfig `koanf:"bootstrap"`
	Server    TransportConfig `koanf:"server"`
}

// TransportConfig is one transport server.
type TransportConfig struct {
	BindAddress string          `koanf:"bind_address"`
	BindPort    int             `koanf:"bind_port"`
	Secure      SecureTransport `koanf:"secure"`
}

// SecureTransport is the DTLS side of a transport server.
type SecureTransport struct {
	BindAddress  string `koanf:"bind_address"`
	BindPort     int    `koanf:"bind_port"`
	BindPortCert int    `koanf:"bind_port_cert"`

	// PublicX and PublicY are the hex coordinates of the server's P-256
	// key, PrivateS its hex private scalar.
	PublicX  string `koanf:"public_x"`
	PublicY  string `koanf:"public_y"`
	PrivateS string `koanf:"private_s"`
}

// ModelsSection configures the object model catalog.
type ModelsSection struct {
	// Dir holds extra YAML/JSON object models. Empty serves built-ins only.
	Dir   string `koanf:"dir"`
	Watch bool   `koanf:"watch"`
}

// EditorSection configures edit sessions.
type EditorSection struct {
	SessionTTL    time.Duration `koanf:"session_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxSessions   int           `koanf:"max_sessions"`
}

// SecuritySection configures access control.
type SecuritySection struct {
	// APIKeys lists accepted keys. None disables authentication.
	APIKeys            []domain.APIKey `koanf:"api_keys"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins"`

	// RateLimit is requests per second per client IP, 0 disables.
	RateLimit int `koanf:"rate_limit"`

	// DefaultHost is used by the defaults endpoint when no host is given.
	DefaultHost string `koanf:"default_host"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
