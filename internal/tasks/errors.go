package tasks

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ProviderError is returned when a task provider rejects a call, either with a
// non-success status or with a logical error in the response body.
type ProviderError struct {
	Provider   string
	Operation  string
	StatusCode int
	ErrorMsg   string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.ErrorMsg != "" {
		msg += ": " + e.ErrorMsg
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func (e *ProviderError) Code() string {
	return "PROVIDER_ERROR"
}

func (e *ProviderError) Message() string {
	return e.ErrorMsg
}

// Temporary reports whether retrying the same call may succeed.
func (e *ProviderError) Temporary() bool {
	if e.StatusCode == 0 {
		return e.Cause != nil
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewStatusError builds a ProviderError from a rejected HTTP response.
func NewStatusError(provider, operation string, status int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: status,
		ErrorMsg:   truncate(string(body), 512),
	}
}

// NewTransportError builds a ProviderError for a call that never got a response.
func NewTransportError(provider, operation string, cause error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		ErrorMsg:  "request failed",
		Cause:     cause,
	}
}

// IsProviderError reports whether err contains a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
