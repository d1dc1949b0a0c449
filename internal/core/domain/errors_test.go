package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("LW-TEST-1000", "test message"),
			expected: "[LW-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("LW-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[LW-TEST-1001] test message: extra info",
		},
		{
			name: "error with fields",
			err: NewDomainError("LW-TEST-1002", "invalid").WithFields(map[string]string{
				"port": "must be at least 1",
				"host": "is required",
			}),
			expected: "[LW-TEST-1002] invalid (host: is required; port: must be at least 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("LW-TEST-1000", "message 1")
	err2 := NewDomainError("LW-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("LW-TEST-1001", "message 1") // Different code

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("LW-TEST-1000", "wrapper").WithCause(cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	errNoCause := NewDomainError("LW-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_CopiesDoNotModifyOriginal(t *testing.T) {
	original := NewDomainError("LW-TEST-1000", "original message")

	withDetails := original.WithDetails("additional details")
	withCause := original.WithCause(fmt.Errorf("root cause"))
	fields := map[string]string{"a": "b"}
	withFields := original.WithFields(fields)
	fields["a"] = "changed"

	if original.Details != "" || original.Cause != nil || original.Fields != nil {
		t.Error("With* should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q", withDetails.Details)
	}
	if withCause.Cause == nil {
		t.Error("Cause should be set")
	}
	if withFields.Fields["a"] != "b" {
		t.Errorf("Fields should be copied, got %v", withFields.Fields)
	}
	if withDetails.Code != original.Code || withDetails.Message != original.Message {
		t.Error("code and message should be preserved")
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrProfileNotFound

	if !IsDomainError(err, "LW-PROF-4040") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(err, "LW-PROF-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(err, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(fmt.Errorf("regular error"), "LW-PROF-4040") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrProfileNotFound)
	if !IsDomainError(wrapped, "LW-PROF-4040") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrEditSessionNotFound, "LW-EDIT-4040"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrInvalidSecurityMode), "LW-ARG-1001"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetErrorFields(t *testing.T) {
	err := fmt.Errorf("put: %w", ErrProfileValidation.WithFields(map[string]string{"client.key": "field is required"}))
	if got := GetErrorFields(err)["client.key"]; got != "field is required" {
		t.Errorf("GetErrorFields() = %q", got)
	}
	if GetErrorFields(fmt.Errorf("plain")) != nil {
		t.Error("GetErrorFields() should be nil for non-DomainError")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrProfileNotFound, "LW-PROF-4040"},
		{ErrProfileValidation, "LW-PROF-4001"},
		{ErrProfileMalformed, "LW-PROF-4002"},
		{ErrEditSessionNotFound, "LW-EDIT-4040"},
		{ErrEditSessionClosed, "LW-EDIT-4100"},
		{ErrUnknownServer, "LW-EDIT-4001"},
		{ErrUnknownField, "LW-EDIT-4002"},
		{ErrUnknownTab, "LW-EDIT-4003"},
		{ErrObjectNotFound, "LW-OBJ-4040"},
		{ErrObjectModelInvalid, "LW-OBJ-4001"},
		{ErrAPIKeyMissing, "LW-AUTH-4010"},
		{ErrAPIKeyInvalid, "LW-AUTH-4011"},
		{ErrInternalServer, "LW-SYS-5000"},
		{ErrStorageError, "LW-SYS-5001"},
		{ErrBadRequest, "LW-SYS-4000"},
		{ErrRateLimited, "LW-SYS-4290"},
		{ErrNotReady, "LW-SYS-5030"},
		{ErrInvalidSecurityMode, "LW-ARG-1001"},
		{ErrInvalidArgument, "LW-ARG-1002"},
		{ErrMissingArgument, "LW-ARG-1003"},
		{ErrFieldRequired, "LW-ARG-1004"},
		{ErrFieldPattern, "LW-ARG-1005"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}
