// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeUnsupportedAction ErrorCode = "UNSUPPORTED_ACTION"

	ErrCodeBackendTimeout       ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBackendRequestFailed ErrorCode = "BACKEND_REQUEST_FAILED"

	ErrCodeArtifactValidationFailed ErrorCode = "ARTIFACT_VALIDATION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeProgressPersistFailed    ErrorCode = "PROGRESS_PERSIST_FAILED"
	ErrCodeInvalidProgressUpdate    ErrorCode = "INVALID_PROGRESS_UPDATE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeIndexFailed                   ErrorCode = "INDEX_FAILED"

	ErrCodeEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"

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

// WithMetadata attaches a key to the error metadata and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewUnsupportedActionError(action string) *StandardError {
	return newError(ErrCodeUnsupportedAction, "Unsupported tool action", action, false).
		WithMetadata("action", action)
}

func NewBackendTimeoutError(action string) *StandardError {
	return newError(ErrCodeBackendTimeout, "Study backend request timed out", action, true).
		WithMetadata("action", action)
}

func NewBackendRequestFailedError(action string, err error) *StandardError {
	return newError(ErrCodeBackendRequestFailed, "Study backend request failed", errDetails(err), true).
		WithMetadata("action", action)
}

func NewArtifactValidationFailedError(kind, details string) *StandardError {
	return newError(ErrCodeArtifactValidationFailed, "Normalized artifact failed schema validation", details, false).
		WithMetadata("kind", kind)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Artifact cache unavailable", errDetails(err), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Failed to connect to database", errDetails(err), true)
}

func NewProgressPersistFailedError(err error) *StandardError {
	return newError(ErrCodeProgressPersistFailed, "Failed to record progress snapshot", errDetails(err), true)
}

func NewInvalidProgressUpdateError(details string) *StandardError {
	return newError(ErrCodeInvalidProgressUpdate, "Invalid progress update", details, false)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Failed to connect to Elasticsearch", errDetails(err), true)
}

func NewIndexFailedError(indexName string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, fmt.Sprintf("Failed to index document into '%s'", indexName), errDetails(err), true).
		WithMetadata("index", indexName)
}

func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable", errDetails(err), true).
		WithMetadata("operation", operation)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the study-assistant process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeUnsupportedAction:             "UNSUPPORTED_ACTION",
	ErrCodeBackendTimeout:                "BACKEND_TIMEOUT",
	ErrCodeBackendRequestFailed:          "BACKEND_REQUEST_FAILED",
	ErrCodeArtifactValidationFailed:      "ARTIFACT_VALIDATION_FAILED",
	ErrCodeCacheUnavailable:              "CACHE_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeProgressPersistFailed:         "PROGRESS_PERSIST_FAILED",
	ErrCodeInvalidProgressUpdate:         "INVALID_PROGRESS_UPDATE",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeIndexFailed:                   "INDEX_FAILED",
	ErrCodeEngineUnavailable:             "WORKFLOW_ENGINE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBackendRequestFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeProgressPersistFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeIndexFailed,
		ErrCodeCacheUnavailable,
		ErrCodeEngineUnavailable:
		return 3

	case ErrCodeBackendTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	case strings.Contains(codeStr, "ARTIFACT") || strings.Contains(codeStr, "ACTION"):
		return "NORMALIZATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "ENGINE"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
