package domain

import "encoding/json"

// Rule is the validation applied to one credential field.
// MaxLen is the input length ceiling shown to the user; it is not enforced by Check.
type Rule struct {
	Required bool
	Pattern  *KeyPattern
	MaxLen   int
}

// MarshalJSON renders the pattern as its expression.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Required bool   `json:"required"`
		Pattern  string `json:"pattern,omitempty"`
		MaxLen   int    `json:"maxLen"`
	}{r.Required, r.PatternSource(), r.MaxLen})
}

// UnmarshalJSON resolves the expression to one of the key patterns.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var wire struct {
		Required bool   `json:"required"`
		Pattern  string `json:"pattern"`
		MaxLen   int    `json:"maxLen"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	rule := Rule{Required: wire.Required, MaxLen: wire.MaxLen}
	if wire.Pattern != "" {
		p := keyPatternBySource(wire.Pattern)
		if p == nil {
			return ErrInvalidArgument.WithDetails("unknown key pattern " + wire.Pattern)
		}
		rule.Pattern = p
	}
	*r = rule
	return nil
}

// HasPattern reports whether the rule carries a pattern.
func (r Rule) HasPattern() bool {
	return r.Pattern != nil
}

// PatternSource returns the pattern expression, or "".
func (r Rule) PatternSource() string {
	if r.Pattern == nil {
		return ""
	}
	return r.Pattern.Source
}

// Check validates value against the rule. An empty optional value passes
// without pattern checks.
func (r Rule) Check(value string) error {
	if value == "" {
		if r.Required {
			return ErrFieldRequired
		}
		return nil
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return ErrFieldPattern.WithDetails(r.Pattern.Source)
	}
	return nil
}

// FieldRules pairs the rules of the public-key-or-identity field and the
// secret-key field.
type FieldRules struct {
	PublicKeyOrID Rule `json:"publicKeyOrId"`
	SecretKey     Rule `json:"secretKey"`
}

var serverCredentialRules = map[SecurityMode]FieldRules{
	ModeNoSec: {
		PublicKeyOrID: Rule{MaxLen: LenMaxPSK},
		SecretKey:     Rule{MaxLen: LenMaxPrivateKey},
	},
	ModePSK: {
		PublicKeyOrID: Rule{Required: true, MaxLen: LenMaxPublicKeyRPK},
		SecretKey:     Rule{Required: true, Pattern: KeyIdentPSKPattern, MaxLen: LenMaxPSK},
	},
	ModeRPK: {
		PublicKeyOrID: Rule{Required: true, Pattern: KeyPublicX509Pattern, MaxLen: LenMaxPublicKeyX509},
		SecretKey:     Rule{Required: true, Pattern: KeyPrivatePattern, MaxLen: LenMaxPrivateKey},
	},
	ModeX509: {
		PublicKeyOrID: Rule{Required: true, Pattern: KeyPublicX509Pattern, MaxLen: LenMaxPublicKeyX509},
		SecretKey:     Rule{Required: true, Pattern: KeyPrivatePattern, MaxLen: LenMaxPrivateKey},
	},
}

// Client identity never carries a rule; only the key field does.
var clientCredentialRules = map[SecurityMode]FieldRules{
	ModeNoSec: {
		PublicKeyOrID: Rule{},
		SecretKey:     Rule{MaxLen: LenMaxPSK},
	},
	ModePSK: {
		PublicKeyOrID: Rule{},
		SecretKey:     Rule{Required: true, Pattern: KeyIdentPSKPattern, MaxLen: LenMaxPSK},
	},
	ModeRPK: {
		PublicKeyOrID: Rule{},
		SecretKey:     Rule{Required: true, Pattern: KeyPublicPSKPattern, MaxLen: LenMaxPublicKeyRPK},
	},
	ModeX509: {
		PublicKeyOrID: Rule{},
		SecretKey:     Rule{MaxLen: LenMaxPublicKeyRPK},
	},
}

// ServerCredentialRules returns the rules for the clientPublicKeyOrId and
// clientSecretKey fields of a server config in mode.
func ServerCredentialRules(mode SecurityMode) FieldRules {
	return serverCredentialRules[mode.orNoSec()]
}

// ClientCredentialRules returns the rules for the client identity and key
// fields in mode.
func ClientCredentialRules(mode SecurityMode) FieldRules {
	return clientCredentialRules[mode.orNoSec()]
}
