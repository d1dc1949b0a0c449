package domain

import (
	"encoding/json"

	"github.com/mohae/deepcopy"
)

// ServerSecurityConfig describes how the client reaches one server
// (bootstrap or LwM2M) and which credentials it presents.
type ServerSecurityConfig struct {
	Host                          string       `json:"host" yaml:"host" validate:"required"`
	Port                          int          `json:"port" yaml:"port" validate:"min=1,max=65535"`
	IsBootstrapServer             bool         `json:"bootstrapServerIs" yaml:"bootstrapServerIs"`
	SecurityMode                  SecurityMode `json:"securityMode" yaml:"securityMode" validate:"lwm2m_mode"`
	ClientPublicKeyOrID           string       `json:"clientPublicKeyOrId,omitempty" yaml:"clientPublicKeyOrId,omitempty"`
	ClientSecretKey               string       `json:"clientSecretKey,omitempty" yaml:"clientSecretKey,omitempty"`
	ServerPublicKey               string       `json:"serverPublicKey" yaml:"serverPublicKey"`
	ClientHoldOffTime             int          `json:"clientHoldOffTime" yaml:"clientHoldOffTime" validate:"min=0"`
	ServerID                      int          `json:"serverId" yaml:"serverId" validate:"min=0,max=65535"`
	BootstrapServerAccountTimeout int          `json:"bootstrapServerAccountTimeout" yaml:"bootstrapServerAccountTimeout" validate:"min=0"`
}

// BootstrapServersSecurityConfig holds the bootstrap parameters shared by
// all servers, independent of security mode.
type BootstrapServersSecurityConfig struct {
	ShortID          int    `json:"shortId" yaml:"shortId" validate:"min=0,max=65535"`
	Lifetime         int    `json:"lifetime" yaml:"lifetime" validate:"min=0"`
	DefaultMinPeriod int    `json:"defaultMinPeriod" yaml:"defaultMinPeriod" validate:"min=0"`
	NotifIfDisabled  bool   `json:"notifIfDisabled" yaml:"notifIfDisabled"`
	Binding          string `json:"binding" yaml:"binding" validate:"oneof=U UQ S SQ US UQS"`
}

// BootstrapSecurityConfig groups the shared parameters with both servers.
type BootstrapSecurityConfig struct {
	Servers         BootstrapServersSecurityConfig `json:"servers" yaml:"servers"`
	BootstrapServer ServerSecurityConfig           `json:"bootstrapServer" yaml:"bootstrapServer"`
	LwM2MServer     ServerSecurityConfig           `json:"lwm2mServer" yaml:"lwm2mServer"`
}

// ObserveAttr lists resource paths selected for observation, attributes,
// telemetry, and their key names.
type ObserveAttr struct {
	Observe   []string `json:"observe" yaml:"observe"`
	Attribute []string `json:"attribute" yaml:"attribute"`
	Telemetry []string `json:"telemetry" yaml:"telemetry"`
	KeyName   []string `json:"keyName" yaml:"keyName"`
}

// MarshalJSON emits empty lists instead of null.
func (o ObserveAttr) MarshalJSON() ([]byte, error) {
	type plain ObserveAttr
	return json.Marshal(plain(o.normalized()))
}

// UnmarshalJSON decodes the lists, turning null into empty lists.
func (o *ObserveAttr) UnmarshalJSON(data []byte) error {
	type plain ObserveAttr
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = ObserveAttr(p).normalized()
	return nil
}

func (o ObserveAttr) normalized() ObserveAttr {
	return ObserveAttr{
		Observe:   nonNil(o.Observe),
		Attribute: nonNil(o.Attribute),
		Telemetry: nonNil(o.Telemetry),
		KeyName:   nonNil(o.KeyName),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ProfileConfig is the LwM2M transport section of a device profile.
type ProfileConfig struct {
	Bootstrap   BootstrapSecurityConfig `json:"bootstrap" yaml:"bootstrap"`
	ObserveAttr ObserveAttr             `json:"observeAttr" yaml:"observeAttr"`
}

// Clone returns a deep copy of the profile config.
func (p *ProfileConfig) Clone() *ProfileConfig {
	if p == nil {
		return nil
	}
	c := deepcopy.Copy(*p).(ProfileConfig)
	c.ObserveAttr = c.ObserveAttr.normalized()
	return &c
}

// SecurityConfig is the full device security document: bootstrap servers,
// the active client credentials, and observe attributes.
type SecurityConfig struct {
	Bootstrap   BootstrapSecurityConfig `json:"bootstrap" yaml:"bootstrap"`
	Client      ClientSecurityConfig    `json:"client" yaml:"client"`
	ObserveAttr ObserveAttr             `json:"observeAttr" yaml:"observeAttr"`
}

// Clone returns a deep copy of the document.
func (c *SecurityConfig) Clone() *SecurityConfig {
	if c == nil {
		return nil
	}
	cp := deepcopy.Copy(*c).(SecurityConfig)
	cp.ObserveAttr = cp.ObserveAttr.normalized()
	return &cp
}

// Server returns a pointer to the server config selected by target.
func (c *SecurityConfig) Server(target ServerTarget) (*ServerSecurityConfig, error) {
	switch target {
	case TargetBootstrapServer:
		return &c.Bootstrap.BootstrapServer, nil
	case TargetLwM2MServer:
		return &c.Bootstrap.LwM2MServer, nil
	default:
		return nil, ErrUnknownServer.WithDetails(string(target))
	}
}

// ServerTarget names one of the two per-server tabs.
type ServerTarget string

// Server targets, matching the JSON keys of BootstrapSecurityConfig.
const (
	TargetBootstrapServer ServerTarget = "bootstrapServer"
	TargetLwM2MServer     ServerTarget = "lwm2mServer"
)

// ServerTargets returns both targets in tab order.
func ServerTargets() []ServerTarget {
	return []ServerTarget{TargetBootstrapServer, TargetLwM2MServer}
}

// ParseServerTarget validates a target name.
func ParseServerTarget(s string) (ServerTarget, error) {
	switch ServerTarget(s) {
	case TargetBootstrapServer, TargetLwM2MServer:
		return ServerTarget(s), nil
	default:
		return "", ErrUnknownServer.WithDetails(s)
	}
}
