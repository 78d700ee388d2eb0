package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies generation failures for retry and audit decisions.
type ErrorCode string

// Provider failure codes
const (
	ErrRateLimited        ErrorCode = "RATE_LIMITED"         // 上游限流（429）
	ErrModelOverloaded    ErrorCode = "MODEL_OVERLOADED"     // 模型过载（529/503）
	ErrTransient          ErrorCode = "TRANSIENT"            // 其他可重试错误
	ErrMalformedOutput    ErrorCode = "MALFORMED_OUTPUT"     // 输出存在但不合法，交给修复层
	ErrNoRawText          ErrorCode = "NO_RAW_TEXT"          // 无输出可修复（网络/鉴权硬失败）
	ErrAllLayersExhausted ErrorCode = "ALL_LAYERS_EXHAUSTED" // 三层修复全部失败
	ErrPersistence        ErrorCode = "PERSISTENCE_FAILURE"  // 审计/检查点持久化失败（不外抛）
)

// Error is a structured generation error. Besides the code and message it
// carries the raw provider output the failure happened on, so the repair
// layers operate on a value pipeline instead of exception introspection.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	RawText   string    `json:"-"`
	RawLen    int       `json:"raw_len,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithRawText attaches the raw provider output that the failure occurred on.
func (e *Error) WithRawText(raw string) *Error {
	e.RawText = raw
	e.RawLen = len(raw)
	return e
}

// HasRawText reports whether the error carries provider output that the
// repair layers can work on. Hard network failures carry none.
func (e *Error) HasRawText() bool {
	return e.RawLen > 0
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if ge, ok := AsError(err); ok {
		return ge.Code
	}
	return ""
}

// RawTextOf returns the raw provider output attached to an error, if any.
func RawTextOf(err error) (string, bool) {
	if ge, ok := AsError(err); ok && ge.HasRawText() {
		return ge.RawText, true
	}
	return "", false
}
