package domain

import "regexp"

// Default identifiers and timers.
const (
	DefaultServerID        = 123 // LwM2M server short id, also the bootstrap servers shortId
	DefaultBootstrapID     = 111
	DefaultHostName        = "localhost"
	DefaultLifetime        = 300
	DefaultMinPeriod       = 1
	DefaultHoldOffTime     = 1
	DefaultBinding         = "U"
	DefaultNotifIfDisabled = true

	DefaultBootstrapServerAccountTimeout = 0
)

// Default ports per security mode.
const (
	DefaultPortServerNoSec    = 5685
	DefaultPortServerSec      = 5686
	DefaultPortServerCert     = 5688
	DefaultPortBootstrapNoSec = 5689
	DefaultPortBootstrapSec   = 5690
	DefaultPortBootstrapCert  = 5692
)

// Key material length ceilings.
const (
	LenMaxPSK           = 64
	LenMaxPrivateKey    = 134
	LenMaxPublicKeyRPK  = 182
	LenMaxPublicKeyX509 = 3000
)

// Object instance id bounds.
const (
	InstanceIDMin = 0
	InstanceIDMax = 65535
)

var hexDigits = regexp.MustCompile(`^[0-9a-fA-F]*$`)

// KeyPattern is a hex-string constraint with a length window.
//
// RE2 rejects repeat counts above 1000, so the length window is checked
// separately from the character class; Source keeps the canonical expression.
type KeyPattern struct {
	Source string
	Min    int
	Max    int
}

// MatchString reports whether s is a hex string within the length window.
func (p *KeyPattern) MatchString(s string) bool {
	if len(s) < p.Min || len(s) > p.Max {
		return false
	}
	return hexDigits.MatchString(s)
}

// String returns the canonical expression.
func (p *KeyPattern) String() string {
	return p.Source
}

// Key material patterns.
var (
	KeyIdentPSKPattern   = &KeyPattern{Source: `^[0-9a-fA-F]{64}$`, Min: 64, Max: 64}
	KeyPrivatePattern    = &KeyPattern{Source: `^[0-9a-fA-F]{134}$`, Min: 134, Max: 134}
	KeyPublicPSKPattern  = &KeyPattern{Source: `^[0-9a-fA-F]{182}$`, Min: 182, Max: 182}
	KeyPublicX509Pattern = &KeyPattern{Source: `^[0-9a-fA-F]{0,3000}$`, Min: 0, Max: 3000}
)

func keyPatternBySource(src string) *KeyPattern {
	for _, p := range []*KeyPattern{KeyIdentPSKPattern, KeyPrivatePattern, KeyPublicPSKPattern, KeyPublicX509Pattern} {
		if p.Source == src {
			return p
		}
	}
	return nil
}
