package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DomainError represents a business domain error with a structured error code.
// Codes follow the format LW-<AREA>-<NNNN>; the last four digits carry the
// HTTP-ish class (4040 not found, 4001 validation, ...).
type DomainError struct {
	Code    string            // Error code (e.g., "LW-PROF-4040")
	Message string            // Human-readable message
	Details string            // Optional additional details
	Fields  map[string]string // Optional field-level violations
	Cause   error             // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if len(e.Fields) > 0 {
		msg += " (" + formatFields(e.Fields) + ")"
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := e.clone()
	c.Details = details
	return c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithFields returns a copy of the error carrying field-level violations.
func (e *DomainError) WithFields(fields map[string]string) *DomainError {
	c := e.clone()
	c.Fields = make(map[string]string, len(fields))
	for k, v := range fields {
		c.Fields[k] = v
	}
	return c
}

func (e *DomainError) clone() *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Fields:  e.Fields,
		Cause:   e.Cause,
	}
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// GetErrorFields extracts field-level violations from a DomainError.
func GetErrorFields(err error) map[string]string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// ============================================================================
// Profile Errors (PROF)
// ============================================================================

var (
	// ErrProfileNotFound indicates no security document is stored for the profile.
	ErrProfileNotFound = NewDomainError("LW-PROF-4040", "profile not found")

	// ErrProfileValidation indicates the security document failed validation.
	ErrProfileValidation = NewDomainError("LW-PROF-4001", "profile validation failed")

	// ErrProfileMalformed indicates the security document could not be decoded.
	ErrProfileMalformed = NewDomainError("LW-PROF-4002", "malformed profile document")
)

// ============================================================================
// Editor Errors (EDIT)
// ============================================================================

var (
	// ErrEditSessionNotFound indicates the edit session does not exist or expired.
	ErrEditSessionNotFound = NewDomainError("LW-EDIT-4040", "edit session not found")

	// ErrEditSessionClosed indicates the session was already saved or cancelled.
	ErrEditSessionClosed = NewDomainError("LW-EDIT-4100", "edit session closed")

	// ErrUnknownServer indicates an unknown server tab target.
	ErrUnknownServer = NewDomainError("LW-EDIT-4001", "unknown server target")

	// ErrUnknownField indicates an unknown editable field.
	ErrUnknownField = NewDomainError("LW-EDIT-4002", "unknown field")

	// ErrUnknownTab indicates an unknown tab index.
	ErrUnknownTab = NewDomainError("LW-EDIT-4003", "unknown tab")
)

// ============================================================================
// Object Model Errors (OBJ)
// ============================================================================

var (
	// ErrObjectNotFound indicates the requested LwM2M object is not in the catalog.
	ErrObjectNotFound = NewDomainError("LW-OBJ-4040", "object not found")

	// ErrObjectModelInvalid indicates an object model file could not be loaded.
	ErrObjectModelInvalid = NewDomainError("LW-OBJ-4001", "invalid object model")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("LW-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key is unknown.
	ErrAPIKeyInvalid = NewDomainError("LW-AUTH-4011", "invalid api key")

	// ErrPermissionDenied indicates the API key role does not allow the operation.
	ErrPermissionDenied = NewDomainError("LW-AUTH-4030", "permission denied")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("LW-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("LW-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("LW-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("LW-SYS-4290", "too many requests")

	// ErrNotReady indicates a dependency is not available yet.
	ErrNotReady = NewDomainError("LW-SYS-5030", "service not ready")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidSecurityMode indicates an unknown security mode name.
	ErrInvalidSecurityMode = NewDomainError("LW-ARG-1001", "invalid security mode")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("LW-ARG-1002", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("LW-ARG-1003", "missing required argument")

	// ErrFieldRequired indicates a credential field left empty under a rule that requires it.
	ErrFieldRequired = NewDomainError("LW-ARG-1004", "field is required")

	// ErrFieldPattern indicates a credential field that does not match its pattern.
	ErrFieldPattern = NewDomainError("LW-ARG-1005", "field does not match pattern")
)
