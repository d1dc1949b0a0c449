package domain

import "strings"

// SecurityMode selects the DTLS credential scheme used between an LwM2M
// client and a server.
type SecurityMode string

// Security modes.
const (
	ModePSK   SecurityMode = "PSK"
	ModeRPK   SecurityMode = "RPK"
	ModeX509  SecurityMode = "X509"
	ModeNoSec SecurityMode = "NO_SEC"
)

var securityModeNames = map[SecurityMode]string{
	ModePSK:   "Pre-Shared Key",
	ModeRPK:   "Raw Public Key",
	ModeX509:  "X.509 Certificate",
	ModeNoSec: "No Security",
}

// AllSecurityModes returns every mode in display order.
func AllSecurityModes() []SecurityMode {
	return []SecurityMode{ModePSK, ModeRPK, ModeX509, ModeNoSec}
}

// ParseSecurityMode converts a mode name (case-insensitive) to a SecurityMode.
func ParseSecurityMode(s string) (SecurityMode, error) {
	m := SecurityMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidSecurityMode.WithDetails(s)
	}
	return m, nil
}

// IsValid reports whether m is one of the four known modes.
func (m SecurityMode) IsValid() bool {
	_, ok := securityModeNames[m]
	return ok
}

// DisplayName returns the human-readable name of the mode.
func (m SecurityMode) DisplayName() string {
	return securityModeNames[m]
}

// String implements fmt.Stringer.
func (m SecurityMode) String() string {
	return string(m)
}

// orNoSec maps the absent mode to NO_SEC.
func (m SecurityMode) orNoSec() SecurityMode {
	if m == "" {
		return ModeNoSec
	}
	return m
}
