package config

import (
	"strings"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Storage.Backup.Passphrase = maskSecret(cfg.Storage.Backup.Passphrase)
	sanitized.Transport.Bootstrap.Secure.PrivateS = maskSecret(cfg.Transport.Bootstrap.Secure.PrivateS)
	sanitized.Transport.Server.Secure.PrivateS = maskSecret(cfg.Transport.Server.Secure.PrivateS)

	// The slice is shared with cfg; copy before masking.
	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]domain.APIKey, len(cfg.Security.APIKeys))
		copy(keys, cfg.Security.APIKeys)
		for i := range keys {
			keys[i].SecretHash = maskSecret(keys[i].SecretHash)
		}
		sanitized.Security.APIKeys = keys
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging. Empty stays empty.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
