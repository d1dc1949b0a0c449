package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// ProfilePrefix is the key prefix of stored security documents.
const ProfilePrefix = "profile/"

// ProfileStore keeps security documents as JSON values in a KVEngine.
type ProfileStore struct {
	kv KVEngine
}

// NewProfileStore wraps kv.
func NewProfileStore(kv KVEngine) *ProfileStore {
	return &ProfileStore{kv: kv}
}

func profileKey(id string) []byte {
	return []byte(ProfilePrefix + id)
}

// Get returns the document stored under id.
func (s *ProfileStore) Get(ctx context.Context, id string) (*domain.SecurityConfig, error) {
	raw, err := s.kv.Get(ctx, profileKey(id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, domain.ErrProfileNotFound.WithDetails(id)
	}
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}

	var doc domain.SecurityConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.ErrStorageError.WithDetails("decode " + id).WithCause(err)
	}
	return &doc, nil
}

// Put stores doc under id, replacing any previous value.
func (s *ProfileStore) Put(ctx context.Context, id string, doc *domain.SecurityConfig) error {
	if doc == nil {
		return domain.ErrMissingArgument.WithDetails("document")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.ErrStorageError.WithDetails("encode " + id).WithCause(err)
	}
	if err := s.kv.Set(ctx, profileKey(id), raw); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Delete removes id. Deleting an unknown id fails with ErrProfileNotFound.
func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	if _, err := s.kv.Get(ctx, profileKey(id)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return domain.ErrProfileNotFound.WithDetails(id)
		}
		return domain.ErrStorageError.WithCause(err)
	}
	if err := s.kv.Delete(ctx, profileKey(id)); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// List returns the stored profile ids in ascending order.
func (s *ProfileStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.kv.Scan(ctx, []byte(ProfilePrefix), func(key, _ []byte) bool {
		ids = append(ids, strings.TrimPrefix(string(key), ProfilePrefix))
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("list profiles: %w", err))
	}
	return ids, nil
}
