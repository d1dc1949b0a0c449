package config

// CLIConfig is the configuration for lwm2m-seccfg-cli.
type CLIConfig struct {
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // table, json, yaml

	// Connections are saved by name.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	CurrentConnection string `yaml:"current_connection,omitempty"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	Server   string `yaml:"server"`
	APIKeyID string `yaml:"api_key_id,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	CACert   string `yaml:"ca_cert,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "http://localhost:8080",
		DefaultOutput: "table",
		Connections:   make(map[string]ConnectionConfig),
	}
}

// Current returns the current saved connection, if any.
func (c *CLIConfig) Current() (ConnectionConfig, bool) {
	if c.CurrentConnection == "" {
		return ConnectionConfig{}, false
	}
	conn, ok := c.Connections[c.CurrentConnection]
	return conn, ok
}
