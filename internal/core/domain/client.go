package domain

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ClientSecurityConfig is the client-side credential set. Exactly one variant
// pointer is set, matching Mode; NO_SEC carries none.
type ClientSecurityConfig struct {
	Mode SecurityMode
	PSK  *ClientPSK
	RPK  *ClientRPK
	X509 *ClientX509
}

// ClientPSK holds pre-shared key credentials.
type ClientPSK struct {
	Endpoint string
	Identity string
	Key      string
}

// ClientRPK holds the raw public key.
type ClientRPK struct {
	Key string
}

// ClientX509 marks certificate based authentication.
type ClientX509 struct {
	X509 bool
}

// clientWire is the flat JSON/YAML shape of ClientSecurityConfig.
type clientWire struct {
	Mode     SecurityMode `json:"securityConfigClientMode" yaml:"securityConfigClientMode"`
	Endpoint *string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Identity *string      `json:"identity,omitempty" yaml:"identity,omitempty"`
	Key      *string      `json:"key,omitempty" yaml:"key,omitempty"`
	X509     *bool        `json:"x509,omitempty" yaml:"x509,omitempty"`
}

// Identity returns the PSK identity, or "" for other modes.
func (c ClientSecurityConfig) Identity() string {
	if c.PSK == nil {
		return ""
	}
	return c.PSK.Identity
}

// Endpoint returns the PSK endpoint, or "" for other modes.
func (c ClientSecurityConfig) Endpoint() string {
	if c.PSK == nil {
		return ""
	}
	return c.PSK.Endpoint
}

// Key returns the PSK or RPK key, or "" for other modes.
func (c ClientSecurityConfig) Key() string {
	switch {
	case c.PSK != nil:
		return c.PSK.Key
	case c.RPK != nil:
		return c.RPK.Key
	default:
		return ""
	}
}

func (c ClientSecurityConfig) toWire() clientWire {
	w := clientWire{Mode: c.Mode.orNoSec()}
	switch {
	case c.PSK != nil:
		w.Endpoint = ptr(c.PSK.Endpoint)
		w.Identity = ptr(c.PSK.Identity)
		w.Key = ptr(c.PSK.Key)
	case c.RPK != nil:
		w.Key = ptr(c.RPK.Key)
	case c.X509 != nil:
		w.X509 = ptr(c.X509.X509)
	}
	return w
}

func (w clientWire) toClient() (ClientSecurityConfig, error) {
	mode := w.Mode.orNoSec()
	c := ClientSecurityConfig{Mode: mode}
	switch mode {
	case ModePSK:
		c.PSK = &ClientPSK{Endpoint: deref(w.Endpoint), Identity: deref(w.Identity), Key: deref(w.Key)}
	case ModeRPK:
		c.RPK = &ClientRPK{Key: deref(w.Key)}
	case ModeX509:
		c.X509 = &ClientX509{X509: w.X509 != nil && *w.X509}
	case ModeNoSec:
	default:
		return ClientSecurityConfig{}, ErrInvalidSecurityMode.WithDetails(string(w.Mode))
	}
	return c, nil
}

// MarshalJSON implements json.Marshaler.
func (c ClientSecurityConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClientSecurityConfig) UnmarshalJSON(data []byte) error {
	var w clientWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := w.toClient()
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c ClientSecurityConfig) MarshalYAML() (interface{}, error) {
	return c.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ClientSecurityConfig) UnmarshalYAML(node *yaml.Node) error {
	var w clientWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	v, err := w.toClient()
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
