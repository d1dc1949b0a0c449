package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/pkg/cmap"
)

// AuthService authenticates requests against the configured API keys.
type AuthService struct {
	keys map[string]domain.APIKey

	// verified remembers the digest of the last secret that passed Argon2
	// verification per key id.
	verified *cmap.Map[[sha256.Size]byte]
}

// NewAuthService validates keys and builds the service. No keys disables
// authentication.
func NewAuthService(keys []domain.APIKey) (*AuthService, error) {
	s := &AuthService{
		keys:     make(map[string]domain.APIKey, len(keys)),
		verified: cmap.New[[sha256.Size]byte](),
	}
	for _, k := range keys {
		if err := k.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.keys[k.ID]; dup {
			return nil, domain.ErrInvalidArgument.WithDetails("duplicate api key id " + k.ID)
		}
		s.keys[k.ID] = k
	}
	return s, nil
}

// Enabled reports whether any key is configured.
func (s *AuthService) Enabled() bool {
	return len(s.keys) > 0
}

// Authenticate returns the key matching id and secret.
func (s *AuthService) Authenticate(id, secret string) (*domain.APIKey, error) {
	if id == "" || secret == "" {
		return nil, domain.ErrAPIKeyMissing
	}
	key, ok := s.keys[id]
	if !ok {
		return nil, domain.ErrAPIKeyInvalid
	}

	digest := sha256.Sum256([]byte(secret))
	if cached, ok := s.verified.Get(id); ok && subtle.ConstantTimeCompare(cached[:], digest[:]) == 1 {
		return &key, nil
	}
	if !key.VerifySecret(secret) {
		return nil, domain.ErrAPIKeyInvalid
	}
	s.verified.Set(id, digest)
	return &key, nil
}

// Authorize checks that key grants at least the required role.
func (s *AuthService) Authorize(key *domain.APIKey, required domain.Role) error {
	if key == nil {
		return domain.ErrAPIKeyMissing
	}
	if !domain.IsRoleAtLeast(key.Role, required) {
		return domain.ErrPermissionDenied.WithDetails("role " + string(key.Role) + " lacks " + string(required))
	}
	return nil
}
