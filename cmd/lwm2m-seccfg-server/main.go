package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/buildinfo"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/confloader"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/shutdown"
	"github.com/yndnr/lwm2m-seccfg/internal/infra/tlsroots"
	"github.com/yndnr/lwm2m-seccfg/internal/server/config"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver/handler"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/memory"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/metric"
)

const binaryName = "lwm2m-seccfg-server"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Print(binaryName))
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting "+binaryName,
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()

	kv, err := initStorage(cfg, log.Slog(), reg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse order of registration, so register in startup
	// order: storage closes last.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing storage engine")
		return kv.Close()
	})

	services, err := initServices(cfg, kv, log.Slog(), reg)
	if err != nil {
		kv.Close()
		return fmt.Errorf("init services: %w", err)
	}

	services.Editor.Start()
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping edit sessions")
		services.Editor.Stop()
		return nil
	})

	if cfg.Models.Watch && cfg.Models.Dir != "" {
		watcher, err := watchModels(cfg.Models.Dir, services.Objects, log)
		if err != nil {
			log.Warn("model watch disabled", "dir", cfg.Models.Dir, "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	httpHandler := handler.New(handler.Deps{
		Profiles:    services.Profiles,
		Editor:      services.Editor,
		Objects:     services.Objects,
		Bootstrap:   services.Bootstrap,
		Backup:      services.Backup,
		DefaultHost: cfg.Security.DefaultHost,
		Logger:      log,
		Metrics:     reg.Handler(),
		Ready: func(ctx context.Context) error {
			_, err := kv.Stats(ctx)
			return err
		},
	})

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Handler = httpHandler
	routerCfg.AuthService = services.Auth
	routerCfg.Logger = log
	routerCfg.Metrics = reg
	routerCfg.CORSAllowedOrigins = cfg.Security.CORSAllowedOrigins
	routerCfg.GlobalRateLimit = cfg.Security.RateLimit

	tlsConfig, err := initTLS(cfg, log, shutdownHandler)
	if err != nil {
		services.Editor.Stop()
		kv.Close()
		return fmt.Errorf("init tls: %w", err)
	}

	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		TLSConfig:    tlsConfig,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}, httpserver.NewRouter(routerCfg))

	if err := httpServer.Listen(); err != nil {
		services.Editor.Stop()
		kv.Close()
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr(), "tls", httpServer.TLS())
		if err := httpServer.Serve(); err != nil {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initTLS returns nil when TLS is not configured. The certificate is
// reloaded from disk when the files change.
func initTLS(cfg *config.ServerConfig, log logger.Logger, sh *shutdown.Handler) (*tls.Config, error) {
	h := cfg.Server.HTTP
	if h.TLSCertFile == "" {
		return nil, nil
	}

	w, err := tlsroots.NewWatcher(h.TLSCertFile, h.TLSKeyFile, tlsroots.WithLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		log.Warn("certificate reload disabled", "error", err)
	} else {
		sh.OnShutdown(func(ctx context.Context) error {
			w.Stop()
			return nil
		})
	}

	var clientCAs *tlsroots.Pool
	if h.TLSClientCAFile != "" {
		clientCAs = tlsroots.NewEmptyPool()
		if err := clientCAs.AddCertFile(h.TLSClientCAFile); err != nil {
			w.Stop()
			return nil, err
		}
		log.Info("client certificate verification enabled", "ca_file", h.TLSClientCAFile)
	}
	return w.ServerConfig(clientCAs), nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and installs it as default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStorage opens the configured storage engine.
func initStorage(cfg *config.ServerConfig, log *slog.Logger, reg *metric.Registry) (storage.KVEngine, error) {
	kvCfg := cfg.KVConfig()
	if kvCfg.Engine == storage.EngineMemory {
		log.Warn("memory storage engine selected, profiles are lost on restart")
		return memory.New(), nil
	}

	engine, err := storage.NewBadgerEngine(kvCfg, log)
	if err != nil {
		return nil, err
	}
	return engine.RegisterMetrics(reg.Prometheus()), nil
}

// Services holds all initialized services.
type Services struct {
	Profiles  *service.ProfileService
	Editor    *service.EditorService
	Objects   *service.ObjectService
	Bootstrap *service.BootstrapService
	Auth      *service.AuthService
	Backup    *backup.Manager
}

// initServices initializes all domain services.
func initServices(cfg *config.ServerConfig, kv storage.KVEngine, log *slog.Logger, reg *metric.Registry) (*Services, error) {
	profiles := service.NewProfileService(storage.NewProfileStore(kv),
		service.WithDefaultHost(cfg.Security.DefaultHost),
		service.WithWriteHook(reg.ProfileWrite),
	)

	editor := service.NewEditorService(cfg.EditorConfig(),
		service.WithProfiles(profiles),
		service.WithEditorMetrics(reg),
		service.WithEditorLogger(log),
	)
	reg.WatchSessions(editor.Count)

	objects, err := service.NewObjectService(cfg.Models.Dir, log)
	if err != nil {
		return nil, fmt.Errorf("load object models: %w", err)
	}
	reg.WatchObjects(objects.Count)

	bootstrap, err := service.NewBootstrapService(cfg.BootstrapConfig())
	if err != nil {
		return nil, fmt.Errorf("bootstrap config: %w", err)
	}

	auth, err := service.NewAuthService(cfg.Security.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("api keys: %w", err)
	}
	if !auth.Enabled() {
		log.Warn("no API keys configured, authentication disabled except for admin routes")
	}

	cipherType, err := backup.ParseCipher(cfg.Storage.Backup.Cipher)
	if err != nil {
		return nil, err
	}
	backups, err := backup.NewManager(kv, backup.Options{
		Passphrase: []byte(cfg.Storage.Backup.Passphrase),
		Cipher:     cipherType,
	})
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	return &Services{
		Profiles:  profiles,
		Editor:    editor,
		Objects:   objects,
		Bootstrap: bootstrap,
		Auth:      auth,
		Backup:    backups,
	}, nil
}

// watchModels reloads the object catalog when a model file changes.
func watchModels(dir string, objects *service.ObjectService, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(log.Slog()),
		confloader.WithWatchFilter(service.IsModelFile),
	)
	if err != nil {
		return nil, err
	}
	if err := w.WatchDir(dir); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		if err := objects.Reload(); err != nil {
			log.Error("reload object models", "path", path, "error", err)
			return
		}
		log.Info("object models reloaded", "path", path, "objects", objects.Count())
	})
	w.StartAsync()
	return w, nil
}
