package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

var (
	hex64  = strings.Repeat("a1", 32)
	hex134 = strings.Repeat("0f", 67)
	hex182 = strings.Repeat("Bc", 91)
)

func TestServerCredentialRules(t *testing.T) {
	tests := []struct {
		mode                     SecurityMode
		pubRequired, secRequired bool
		pubPattern, secPattern   *KeyPattern
		pubMax, secMax           int
	}{
		{ModeNoSec, false, false, nil, nil, LenMaxPSK, LenMaxPrivateKey},
		{ModePSK, true, true, nil, KeyIdentPSKPattern, LenMaxPublicKeyRPK, LenMaxPSK},
		{ModeRPK, true, true, KeyPublicX509Pattern, KeyPrivatePattern, LenMaxPublicKeyX509, LenMaxPrivateKey},
		{ModeX509, true, true, KeyPublicX509Pattern, KeyPrivatePattern, LenMaxPublicKeyX509, LenMaxPrivateKey},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := ServerCredentialRules(tt.mode)
			if r.PublicKeyOrID.Required != tt.pubRequired || r.SecretKey.Required != tt.secRequired {
				t.Errorf("required = %v/%v, want %v/%v", r.PublicKeyOrID.Required, r.SecretKey.Required, tt.pubRequired, tt.secRequired)
			}
			if r.PublicKeyOrID.Pattern != tt.pubPattern || r.SecretKey.Pattern != tt.secPattern {
				t.Errorf("patterns = %q/%q", r.PublicKeyOrID.PatternSource(), r.SecretKey.PatternSource())
			}
			if r.PublicKeyOrID.MaxLen != tt.pubMax || r.SecretKey.MaxLen != tt.secMax {
				t.Errorf("maxLen = %d/%d, want %d/%d", r.PublicKeyOrID.MaxLen, r.SecretKey.MaxLen, tt.pubMax, tt.secMax)
			}
		})
	}
}

func TestClientCredentialRules(t *testing.T) {
	tests := []struct {
		mode        SecurityMode
		keyRequired bool
		keyPattern  *KeyPattern
		keyMax      int
	}{
		{ModeNoSec, false, nil, LenMaxPSK},
		{ModePSK, true, KeyIdentPSKPattern, LenMaxPSK},
		{ModeRPK, true, KeyPublicPSKPattern, LenMaxPublicKeyRPK},
		{ModeX509, false, nil, LenMaxPublicKeyRPK},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := ClientCredentialRules(tt.mode)
			if r.PublicKeyOrID.Required || r.PublicKeyOrID.Pattern != nil {
				t.Error("client identity should never carry a rule")
			}
			if r.SecretKey.Required != tt.keyRequired {
				t.Errorf("key required = %v, want %v", r.SecretKey.Required, tt.keyRequired)
			}
			if r.SecretKey.Pattern != tt.keyPattern {
				t.Errorf("key pattern = %q", r.SecretKey.PatternSource())
			}
			if r.SecretKey.MaxLen != tt.keyMax {
				t.Errorf("key maxLen = %d, want %d", r.SecretKey.MaxLen, tt.keyMax)
			}
		})
	}
}

func TestCredentialTablesAreDistinct(t *testing.T) {
	if ServerCredentialRules(ModeRPK) == ClientCredentialRules(ModeRPK) {
		t.Error("server and client RPK rules should differ")
	}
	if ServerCredentialRules(ModeX509).SecretKey == ClientCredentialRules(ModeX509).SecretKey {
		t.Error("server and client X509 key rules should differ")
	}
}

func TestRule_Check(t *testing.T) {
	psk := ServerCredentialRules(ModePSK).SecretKey
	x509 := ServerCredentialRules(ModeX509)

	tests := []struct {
		name    string
		rule    Rule
		value   string
		wantErr *DomainError
	}{
		{"optional empty", Rule{}, "", nil},
		{"optional any", Rule{}, "not hex", nil},
		{"required empty", psk, "", ErrFieldRequired},
		{"psk valid", psk, hex64, nil},
		{"psk uppercase", psk, strings.ToUpper(hex64), nil},
		{"psk short", psk, hex64[:63], ErrFieldPattern},
		{"psk long", psk, hex64 + "a", ErrFieldPattern},
		{"psk not hex", psk, strings.Repeat("g", 64), ErrFieldPattern},
		{"private valid", x509.SecretKey, hex134, nil},
		{"private wrong length", x509.SecretKey, hex64, ErrFieldPattern},
		{"x509 public short", x509.PublicKeyOrID, "ab", nil},
		{"x509 public max", x509.PublicKeyOrID, strings.Repeat("f", 3000), nil},
		{"x509 public too long", x509.PublicKeyOrID, strings.Repeat("f", 3001), ErrFieldPattern},
		{"client rpk valid", ClientCredentialRules(ModeRPK).SecretKey, hex182, nil},
		{"client rpk short", ClientCredentialRules(ModeRPK).SecretKey, hex134, ErrFieldPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Check(tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check() error = %v, want nil", err)
				}
				return
			}
			if !IsDomainError(err, tt.wantErr.Code) {
				t.Errorf("Check() error = %v, want %s", err, tt.wantErr.Code)
			}
		})
	}
}

func TestRule_MarshalJSON(t *testing.T) {
	b, err := ServerCredentialRules(ModePSK).SecretKey.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"required":true,"pattern":"^[0-9a-fA-F]{64}$","maxLen":64}`
	if string(b) != want {
		t.Errorf("MarshalJSON() = %s, want %s", b, want)
	}
}

func TestRule_UnmarshalJSON(t *testing.T) {
	for _, mode := range []SecurityMode{ModePSK, ModeRPK, ModeX509, ModeNoSec} {
		for name, rules := range map[string]FieldRules{
			"server": ServerCredentialRules(mode),
			"client": ClientCredentialRules(mode),
		} {
			b, err := json.Marshal(rules)
			if err != nil {
				t.Fatalf("%s/%s: Marshal() error = %v", name, mode, err)
			}
			var got FieldRules
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("%s/%s: Unmarshal(%s) error = %v", name, mode, b, err)
			}
			if got != rules {
				t.Errorf("%s/%s: round trip = %+v, want %+v", name, mode, got, rules)
			}
		}
	}

	var r Rule
	if err := json.Unmarshal([]byte(`{"required":true,"pattern":"^x$","maxLen":1}`), &r); err == nil {
		t.Error("Unmarshal() with unknown pattern should fail")
	}
}
