package service

import (
	"errors"
	"testing"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

func TestAuthService(t *testing.T) {
	editorKey, editorSecret, err := domain.NewAPIKey("ci", domain.RoleEditor)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := NewAuthService([]domain.APIKey{*editorKey})
	if err != nil {
		t.Fatal(err)
	}
	if !svc.Enabled() {
		t.Error("Enabled() = false")
	}

	tests := []struct {
		name   string
		id     string
		secret string
		want   error
	}{
		{"missing", "", "", domain.ErrAPIKeyMissing},
		{"unknown id", "lwak-nope", editorSecret, domain.ErrAPIKeyInvalid},
		{"wrong secret", editorKey.ID, "lwas_wrong", domain.ErrAPIKeyInvalid},
		{"valid", editorKey.ID, editorSecret, nil},
		{"valid from cache", editorKey.ID, editorSecret, nil},
		{"wrong secret after cache", editorKey.ID, editorSecret + "x", domain.ErrAPIKeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := svc.Authenticate(tt.id, tt.secret)
			if tt.want == nil {
				if err != nil || key.ID != editorKey.ID {
					t.Errorf("Authenticate() = %v, %v", key, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := svc.Authorize(editorKey, domain.RoleViewer); err != nil {
		t.Errorf("editor denied viewer access: %v", err)
	}
	if err := svc.Authorize(editorKey, domain.RoleAdmin); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("Authorize(admin) error = %v", err)
	}
	if err := svc.Authorize(nil, domain.RoleViewer); !errors.Is(err, domain.ErrAPIKeyMissing) {
		t.Errorf("Authorize(nil) error = %v", err)
	}
}

func TestNewAuthService_Rejects(t *testing.T) {
	key, _, _ := domain.NewAPIKey("a", domain.RoleViewer)
	if _, err := NewAuthService([]domain.APIKey{*key, *key}); err == nil {
		t.Error("duplicate ids accepted")
	}
	if _, err := NewAuthService([]domain.APIKey{{ID: "bad"}}); err == nil {
		t.Error("invalid key accepted")
	}
	svc, err := NewAuthService(nil)
	if err != nil || svc.Enabled() {
		t.Errorf("NewAuthService(nil) = %v, enabled=%v", err, svc != nil && svc.Enabled())
	}
}
