package service

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// ProfileRepository stores security documents by profile id.
type ProfileRepository interface {
	// Get returns domain.ErrProfileNotFound when id is unknown.
	Get(ctx context.Context, id string) (*domain.SecurityConfig, error)

	// Put creates or replaces the document.
	Put(ctx context.Context, id string, doc *domain.SecurityConfig) error

	// Delete returns domain.ErrProfileNotFound when id is unknown.
	Delete(ctx context.Context, id string) error

	// List returns all ids in ascending order.
	List(ctx context.Context) ([]string, error)
}

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// ProfileService manages stored security documents.
type ProfileService struct {
	repo        ProfileRepository
	defaultHost string
	onWrite     func(op string)
}

// ProfileOption configures a ProfileService.
type ProfileOption func(*ProfileService)

// WithDefaultHost sets the host used for documents that do not exist yet.
func WithDefaultHost(host string) ProfileOption {
	return func(s *ProfileService) {
		s.defaultHost = host
	}
}

// WithWriteHook registers fn to observe successful "put" and "delete" calls.
func WithWriteHook(fn func(op string)) ProfileOption {
	return func(s *ProfileService) {
		s.onWrite = fn
	}
}

// NewProfileService creates a ProfileService over repo.
func NewProfileService(repo ProfileRepository, opts ...ProfileOption) *ProfileService {
	s := &ProfileService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateProfileID checks that id is usable as a storage key.
func ValidateProfileID(id string) error {
	if id == "" {
		return domain.ErrMissingArgument.WithDetails("profile id")
	}
	if !profileIDPattern.MatchString(id) {
		return domain.ErrInvalidArgument.WithDetails("profile id must match " + profileIDPattern.String())
	}
	return nil
}

// Get returns the stored document.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.SecurityConfig, error) {
	if err := ValidateProfileID(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// GetOrDefault returns the stored document, or the defaults when none exists.
func (s *ProfileService) GetOrDefault(ctx context.Context, id string) (*domain.SecurityConfig, error) {
	doc, err := s.Get(ctx, id)
	if domain.IsDomainError(err, domain.ErrProfileNotFound.Code) {
		return domain.DefaultSecurityConfig(s.defaultHost), nil
	}
	return doc, err
}

// Put validates doc and stores it.
func (s *ProfileService) Put(ctx context.Context, id string, doc *domain.SecurityConfig) error {
	if err := ValidateProfileID(id); err != nil {
		return err
	}
	if doc == nil {
		return domain.ErrMissingArgument.WithDetails("document")
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, id, doc); err != nil {
		return err
	}
	s.notify("put")
	return nil
}

// Delete removes the stored document.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := ValidateProfileID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify("delete")
	return nil
}

// List returns the stored profile ids.
func (s *ProfileService) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

func (s *ProfileService) notify(op string) {
	if s.onWrite != nil {
		s.onWrite(op)
	}
}

// ParseDocument decodes a JSON security document.
func ParseDocument(raw []byte) (*domain.SecurityConfig, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.ErrProfileMalformed.WithDetails("empty document")
	}
	var doc domain.SecurityConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		if domain.IsDomainError(err, "") {
			return nil, err
		}
		return nil, domain.ErrProfileMalformed.WithCause(err).WithDetails(err.Error())
	}
	return &doc, nil
}
