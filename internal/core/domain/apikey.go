package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"
)

// API key id and secret prefixes.
const (
	APIKeyIDPrefix     = "lwak-"
	APIKeySecretPrefix = "lwas_"
)

// Argon2id parameters for API key secret hashing.
const (
	Argon2Memory      uint32 = 16384
	Argon2Time        uint32 = 2
	Argon2Parallelism uint8  = 2
	Argon2KeyLen      uint32 = 32
	Argon2SaltLen            = 16

	apiKeySecretLen = 32
)

// Role is the permission level of an API key.
type Role string

const (
	// RoleViewer reads defaults, policies, objects and stored profiles.
	RoleViewer Role = "viewer"

	// RoleEditor additionally opens edit sessions and writes profiles.
	RoleEditor Role = "editor"

	// RoleAdmin additionally runs backups and restores.
	RoleAdmin Role = "admin"
)

// ValidRoles returns all roles from least to most privileged.
func ValidRoles() []Role {
	return []Role{RoleViewer, RoleEditor, RoleAdmin}
}

// IsValidRole reports whether r names a role.
func IsValidRole(r string) bool {
	for _, role := range ValidRoles() {
		if string(role) == r {
			return true
		}
	}
	return false
}

func roleLevel(r Role) int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// IsRoleAtLeast reports whether role grants everything required grants.
func IsRoleAtLeast(role, required Role) bool {
	return roleLevel(role) >= roleLevel(required)
}

// APIKey is a configured credential. Only the secret hash is kept.
type APIKey struct {
	ID         string `json:"id" koanf:"id"`
	Name       string `json:"name" koanf:"name"`
	Role       Role   `json:"role" koanf:"role"`
	SecretHash string `json:"secret_hash" koanf:"secret_hash"`
}

// NewAPIKey generates a key and returns it with the plaintext secret.
// The secret is not recoverable afterwards.
func NewAPIKey(name string, role Role) (*APIKey, string, error) {
	if !IsValidRole(string(role)) {
		return nil, "", ErrInvalidArgument.WithDetails("role " + string(role))
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	raw := make([]byte, apiKeySecretLen)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}
	secret := APIKeySecretPrefix + base64.RawURLEncoding.EncodeToString(raw)

	hash, err := HashAPIKeySecret(secret)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	return &APIKey{
		ID:         APIKeyIDPrefix + strings.ToLower(id.String()),
		Name:       name,
		Role:       role,
		SecretHash: hash,
	}, secret, nil
}

// HashAPIKeySecret returns the Argon2id PHC string of secret.
func HashAPIKeySecret(secret string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, Argon2Memory, Argon2Time, Argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifySecret reports whether secret matches the stored hash.
// Hash format: $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>
func (k *APIKey) VerifySecret(secret string) bool {
	parts := strings.Split(k.SecretHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var mem, iter uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(secret), salt, iter, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// Validate checks the configured fields.
func (k *APIKey) Validate() error {
	if !strings.HasPrefix(k.ID, APIKeyIDPrefix) {
		return ErrInvalidArgument.WithDetails("api key id must start with " + APIKeyIDPrefix)
	}
	if !IsValidRole(string(k.Role)) {
		return ErrInvalidArgument.WithDetails("api key " + k.ID + ": unknown role " + string(k.Role))
	}
	if !strings.HasPrefix(k.SecretHash, "$argon2id$") {
		return ErrInvalidArgument.WithDetails("api key " + k.ID + ": secret_hash must be an argon2id hash")
	}
	return nil
}

// MaskAPIKeySecret keeps the prefix and the last four characters.
func MaskAPIKeySecret(secret string) string {
	if len(secret) <= len(APIKeySecretPrefix)+4 {
		return "****"
	}
	return secret[:len(APIKeySecretPrefix)] + "****" + secret[len(secret)-4:]
}
