// Package errors provides standardized error handling for the relay's HTTP surface.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeRequestTooLarge      ErrorCode = "REQUEST_TOO_LARGE"

	ErrCodeAnalyzerFailed     ErrorCode = "ANALYZER_FAILED"
	ErrCodeDialogEngineFailed ErrorCode = "DIALOG_ENGINE_FAILED"

	ErrCodeCacheFailed ErrorCode = "CACHE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Downstream Service Errors
// ==========================

// ServiceError is a failed call to an external collaborator. Body holds the
// collaborator's own error object so it can be relayed to the client as is.
type ServiceError struct {
	Service    string          `json:"service"`
	StatusCode int             `json:"code,omitempty"`
	Body       json.RawMessage `json:"-"`
	Err        error           `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ServiceError[%s]: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("ServiceError[%s]: status %d: %s", e.Service, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Status is the HTTP status carried by the error, 500 when there is none.
func (e *ServiceError) Status() int {
	if e.StatusCode < 400 || e.StatusCode > 599 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// ErrorBody returns the raw error object. When the collaborator did not send
// a JSON object one is synthesized from the status and message.
func (e *ServiceError) ErrorBody() json.RawMessage {
	if isJSONObject(e.Body) {
		return e.Body
	}

	msg := strings.TrimSpace(string(e.Body))
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = http.StatusText(e.Status())
	}

	body, _ := json.Marshal(map[string]interface{}{
		"error": msg,
		"code":  e.Status(),
	})
	return body
}

func isJSONObject(b json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(b))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return json.Valid([]byte(trimmed))
}

// NewServiceError builds a ServiceError from an HTTP response.
func NewServiceError(service string, statusCode int, body []byte) *ServiceError {
	return &ServiceError{
		Service:    service,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewTransportError wraps a failure that produced no HTTP response.
func NewTransportError(service string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Err:     err,
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigurationMissingError flags a required setting that was not provided.
func NewConfigurationMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Service is not configured",
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable client error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request body",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestTooLargeError rejects a body over limit bytes.
func NewRequestTooLargeError(limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestTooLarge,
		Message:   "Request body too large",
		Details:   fmt.Sprintf("limit: %d bytes", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalyzerFailedError wraps a text analyzer failure.
func NewAnalyzerFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalyzerFailed,
		Message:   "Text analyzer call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDialogEngineFailedError wraps a dialog engine failure that carried no
// error object of its own.
func NewDialogEngineFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDialogEngineFailed,
		Message:   "Dialog engine call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheFailedError wraps a cache read or write failure.
func NewCacheFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Analysis cache operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. HTTP Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to response statuses.
// CONFIGURATION_MISSING is answered with instructions, not an error status.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeConfigurationMissing: http.StatusOK,
	ErrCodeInvalidRequest:       http.StatusBadRequest,
	ErrCodeRequestTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeAnalyzerFailed:       http.StatusBadGateway,
	ErrCodeDialogEngineFailed:   http.StatusInternalServerError,
	ErrCodeCacheFailed:          http.StatusServiceUnavailable,
	ErrCodeInternal:             http.StatusInternalServerError,
}

// GetHTTPStatus returns the response status for an error code.
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIG"
	case strings.Contains(codeStr, "ANALYZER"), strings.Contains(codeStr, "DIALOG"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "TOO_LARGE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
