package config

import (
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/storage"
)

// KVConfig returns the storage engine settings.
func (c *ServerConfig) KVConfig() storage.KVConfig {
	kv := storage.DefaultKVConfig(c.Storage.DataDir)
	kv.Engine = c.Storage.Engine
	if c.Storage.GCInterval != "" {
		kv.Badger.GCInterval = c.Storage.GCInterval
	}
	return kv
}

// BootstrapConfig returns the transport endpoints reported to clients.
func (c *ServerConfig) BootstrapConfig() service.BootstrapConfig {
	return service.BootstrapConfig{
		Bootstrap: c.Transport.Bootstrap.endpoint(),
		Server:    c.Transport.Server.endpoint(),
	}
}

func (t TransportConfig) endpoint() service.TransportEndpoint {
	return service.TransportEndpoint{
		Host:           t.BindAddress,
		Port:           t.BindPort,
		SecureHost:     t.Secure.BindAddress,
		SecurePort:     t.Secure.BindPort,
		SecurePortCert: t.Secure.BindPortCert,
		PublicX:        t.Secure.PublicX,
		PublicY:        t.Secure.PublicY,
	}
}

// EditorConfig returns the edit session settings.
func (c *ServerConfig) EditorConfig() service.EditorConfig {
	return service.EditorConfig{
		SessionTTL:    c.Editor.SessionTTL,
		SweepInterval: c.Editor.SweepInterval,
		MaxSessions:   c.Editor.MaxSessions,
	}
}
