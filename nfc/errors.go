package nfc

import (
	"errors"
	"strings"
)

// ErrorCode represents a specific type of session error for programmatic handling.
type ErrorCode int

const (
	ErrCodeSessionInvalidated ErrorCode = iota + 200
	ErrCodeSessionTimeout
	ErrCodeReaderUnavailable
	ErrCodeReaderFailure
)

// SessionError is the error a ReaderSession is invalidated with.
//
// Error() is the user-facing message; callers surface it verbatim.
type SessionError struct {
	Code    ErrorCode
	Op      string // Operation that failed (e.g., "OpenDevice", "Poll")
	Message string // Human-readable message
	Cause   error  // Underlying error
}

func (e *SessionError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		if e.Op != "" {
			sb.WriteString(e.Op)
			sb.WriteString(": ")
		}
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is matches any SessionError carrying the same code.
func (e *SessionError) Is(target error) bool {
	if t, ok := target.(*SessionError); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinel values for errors.Is. The session delivers copies with Op and Cause filled in.
var (
	ErrSessionInvalidated = &SessionError{Code: ErrCodeSessionInvalidated, Message: "Session invalidated by user"}
	ErrSessionTimeout     = &SessionError{Code: ErrCodeSessionTimeout, Message: "Session timeout"}
	ErrReaderUnavailable  = &SessionError{Code: ErrCodeReaderUnavailable, Message: "NFC reader unavailable"}
	ErrReaderFailure      = &SessionError{Code: ErrCodeReaderFailure, Message: "NFC reader error"}
)

// wrapSessionError copies a sentinel and attaches the operation and cause.
func wrapSessionError(sentinel *SessionError, op string, cause error) *SessionError {
	return &SessionError{
		Code:    sentinel.Code,
		Op:      op,
		Message: sentinel.Message,
		Cause:   cause,
	}
}

// GetErrorCode extracts the ErrorCode from an error if it's a SessionError.
// Returns 0 if the error is not a SessionError.
func GetErrorCode(err error) ErrorCode {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Code
	}
	return 0
}
