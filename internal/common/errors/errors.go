// Package errors provides standardized error handling for the screening
// workflow and its BPMN integration.
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
	ErrCodePredictusAuthFailed   ErrorCode = "PREDICTUS_AUTH_FAILED"
	ErrCodeProcessSearchFailed   ErrorCode = "PROCESS_SEARCH_FAILED"
	ErrCodeProcessSearchTimeout  ErrorCode = "PROCESS_SEARCH_TIMEOUT"
	ErrCodeInvalidCPFFormat      ErrorCode = "INVALID_CPF_FORMAT"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeBulkFileInvalid       ErrorCode = "BULK_FILE_INVALID"
	ErrCodeIdentityCheckFailed   ErrorCode = "IDENTITY_CHECK_FAILED"
	ErrCodeIdentityCheckTimeout  ErrorCode = "IDENTITY_CHECK_TIMEOUT"
	ErrCodeIdentityCheckRejected ErrorCode = "IDENTITY_CHECK_REJECTED"
	ErrCodeLLMTimeout            ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMAnalysisFailed     ErrorCode = "LLM_ANALYSIS_FAILED"
	ErrCodeRecordPersistFailed   ErrorCode = "RECORD_PERSIST_FAILED"
	ErrCodeRecordIndexFailed     ErrorCode = "RECORD_INDEX_FAILED"
	ErrCodeRecordSchemaInvalid   ErrorCode = "RECORD_SCHEMA_INVALID"
	ErrCodeHistoryWriteFailed    ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeNotificationFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
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
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
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

// ToErrorVariables returns a map suitable for setting job fail variables.
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

// NewPredictusAuthFailedError creates a retryable judicial-API auth error.
func NewPredictusAuthFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictusAuthFailed,
		Message:   "Authentication with judicial records API failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProcessSearchFailedError creates a retryable search error.
func NewProcessSearchFailedError(searchType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProcessSearchFailed,
		Message:   "Judicial process search failed",
		Details:   fmt.Sprintf("searchType: %s, error: %s", searchType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProcessSearchTimeoutError creates a retryable search timeout error.
func NewProcessSearchTimeoutError(searchType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProcessSearchTimeout,
		Message:   "Judicial process search timeout",
		Details:   fmt.Sprintf("searchType: %s", searchType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCPFFormatError creates a non-retryable input validation error.
func NewInvalidCPFFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCPFFormat,
		Message:   "Subject identifier is not a valid CPF",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationFailedError creates a non-retryable job input error.
func NewInputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Job input failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBulkFileInvalidError creates a non-retryable bulk input error.
func NewBulkFileInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBulkFileInvalid,
		Message:   "Bulk search file is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityCheckFailedError creates a retryable identity-API error.
func NewIdentityCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityCheckFailed,
		Message:   "Identity check transaction failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityCheckTimeoutError creates a retryable polling timeout error.
func NewIdentityCheckTimeoutError(transactionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityCheckTimeout,
		Message:   "Identity check did not complete in time",
		Details:   fmt.Sprintf("transactionId: %s", transactionID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityCheckRejectedError creates a non-retryable rejection result.
func NewIdentityCheckRejectedError(transactionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityCheckRejected,
		Message:   "Identity check transaction was rejected",
		Details:   fmt.Sprintf("transactionId: %s", transactionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Narrative analysis timeout",
		Details:   "generation call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMAnalysisFailedError creates a retryable LLM API error.
func NewLLMAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMAnalysisFailed,
		Message:   "Narrative analysis API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordPersistFailedError creates a retryable database error.
func NewRecordPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordPersistFailed,
		Message:   "Screening result insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordIndexFailedError creates a retryable analytics index error.
func NewRecordIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordIndexFailed,
		Message:   "Screening result indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordSchemaInvalidError creates a non-retryable payload schema error.
func NewRecordSchemaInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordSchemaInvalid,
		Message:   "Screening result payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryWriteFailedError creates a retryable history file error.
func NewHistoryWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Search history write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable notification send error.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Compliance notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePredictusAuthFailed,
		ErrCodeProcessSearchFailed,
		ErrCodeIdentityCheckFailed,
		ErrCodeLLMAnalysisFailed,
		ErrCodeRecordPersistFailed,
		ErrCodeRecordIndexFailed,
		ErrCodeHistoryWriteFailed,
		ErrCodeNotificationFailed:
		return 3 // Retryable technical errors

	case ErrCodeProcessSearchTimeout,
		ErrCodeIdentityCheckTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeLLMTimeout:
		return 1 // One retry before the fallback narrative takes over

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PREDICTUS") || strings.Contains(codeStr, "SEARCH"):
		return "JUDICIAL_API"
	case strings.Contains(codeStr, "IDENTITY"):
		return "IDENTITY_API"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "HISTORY"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "BULK") ||
		strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
