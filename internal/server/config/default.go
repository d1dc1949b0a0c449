package config

import (
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultStorageEngine = storage.EngineBadger
	DefaultDataDir       = "/var/lib/lwm2m-seccfg/data"
	DefaultGCInterval    = "10m"

	DefaultBindAddress = "0.0.0.0"

	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultMaxSessions   = 1000

	DefaultRateLimit = 100

	DefaultLogLevel  = logger.DefaultLevel
	DefaultLogFormat = logger.DefaultFormat
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Storage: StorageSection{
			Engine:     DefaultStorageEngine,
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Transport: TransportSection{
			Bootstrap: TransportConfig{
				BindAddress: DefaultBindAddress,
				BindPort:    domain.DefaultPortBootstrapNoSec,
				Secure: SecureTransport{
					BindAddress:  DefaultBindAddress,
					BindPort:     domain.DefaultPortBootstrapSec,
					BindPortCert: domain.DefaultPortBootstrapCert,
				},
			},
			Server: TransportConfig{
				BindAddress: DefaultBindAddress,
				BindPort:    domain.DefaultPortServerNoSec,
				Secure: SecureTransport{
					BindAddress:  DefaultBindAddress,
					BindPort:     domain.DefaultPortServerSec,
					BindPortCert: domain.DefaultPortServerCert,
				},
			},
		},
		Models: ModelsSection{
			Watch: true,
		},
		Editor: EditorSection{
			SessionTTL:    DefaultSessionTTL,
			SweepInterval: DefaultSweepInterval,
			MaxSessions:   DefaultMaxSessions,
		},
		Security: SecuritySection{
			RateLimit:   DefaultRateLimit,
			DefaultHost: domain.DefaultHostName,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
