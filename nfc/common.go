package nfc

import (
	"errors"
	"strings"
)

// Sentinel errors drivers wrap so poll failures can be classified.
var (
	// ErrTimeout indicates a timeout occurred during device communication
	ErrTimeout = errors.New("device operation timed out")

	// ErrDeviceClosed indicates the device connection was closed
	ErrDeviceClosed = errors.New("device closed")

	// ErrIO indicates an input/output error with the device
	ErrIO = errors.New("device I/O error")
)

// cardRemovedError indicates the card left the field while it was being read.
type cardRemovedError struct {
	Cause error
}

func (e *cardRemovedError) Error() string {
	if e.Cause != nil {
		return "card was removed: " + e.Cause.Error()
	}
	return "card was removed"
}

func (e *cardRemovedError) Unwrap() error {
	return e.Cause
}

// NewCardRemovedError wraps cause as a card-removed error.
func NewCardRemovedError(cause error) error {
	return &cardRemovedError{Cause: cause}
}

// IsCardRemovedError checks if an error indicates the card was removed mid-read.
func IsCardRemovedError(err error) bool {
	var cardRemoved *cardRemovedError
	return errors.As(err, &cardRemoved)
}

// IsTimeoutError matches ErrTimeout and the timeout messages libnfc drivers
// return when nothing answers in the field.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "operation timed out") ||
		strings.Contains(errStr, "timeout")
}

// IsDeviceLostError reports whether the reader itself went away.
func IsDeviceLostError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDeviceClosed) || errors.Is(err, ErrIO) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "input / output error") ||
		strings.Contains(errStr, "input/output error") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "device not configured") ||
		strings.Contains(errStr, "no such device")
}

// IsTransientPollError reports whether a poll error only means nothing usable
// was in the field this time. A reader session keeps polling after one.
func IsTransientPollError(err error) bool {
	if err == nil || IsDeviceLostError(err) {
		return false
	}
	return IsTimeoutError(err) || IsCardRemovedError(err)
}
