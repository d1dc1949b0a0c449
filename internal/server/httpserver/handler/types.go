package handler

import (
	"encoding/json"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics and backup downloads).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Field violations or error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SecurityModeInfo describes one security mode.
type SecurityModeInfo struct {
	Mode        domain.SecurityMode `json:"securityMode"`
	DisplayName string              `json:"displayName"`
}

// PolicyResponse is the response body for GET /api/lwm2m/policy/{securityMode}.
type PolicyResponse struct {
	SecurityMode domain.SecurityMode `json:"securityMode"`
	Side         string              `json:"side"`
	Rules        domain.FieldRules   `json:"rules"`
}

// ValidateProfileResponse is the response body for POST /api/lwm2m/profiles/validate.
type ValidateProfileResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ListProfilesResponse is the response body for GET /api/lwm2m/profiles.
type ListProfilesResponse struct {
	IDs []string `json:"ids"`
}

// DeleteProfileResponse is the response body for DELETE /api/lwm2m/profiles/{id}.
type DeleteProfileResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// OpenSessionRequest is the request body for POST /api/lwm2m/editor/sessions.
type OpenSessionRequest struct {
	Endpoint  string          `json:"endpoint"`
	ProfileID string          `json:"profileId,omitempty"`
	Host      string          `json:"host,omitempty"`
	Document  json.RawMessage `json:"document,omitempty"`
}

// ModeRequest selects a security mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// ClientFieldsRequest edits client tab fields. Absent fields are left alone.
type ClientFieldsRequest struct {
	Endpoint *string `json:"endpoint,omitempty"`
	Identity *string `json:"identity,omitempty"`
	Key      *string `json:"key,omitempty"`
}

// ServerEditRequest replaces a whole server draft or edits single fields.
type ServerEditRequest struct {
	Config *domain.ServerSecurityConfig `json:"config,omitempty"`
	Fields map[string]string            `json:"fields,omitempty"`
}

// JSONEditRequest replaces the raw JSON tab text.
type JSONEditRequest struct {
	Text string `json:"text"`
}

// TabRequest switches the active tab by name or index.
type TabRequest struct {
	Tab string `json:"tab"`
}

// CancelSessionResponse is the response body for POST …/{id}/cancel.
type CancelSessionResponse struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}
