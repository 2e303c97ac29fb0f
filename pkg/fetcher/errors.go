package fetcher

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is wrapped by a FetchError when the page is larger than
// Config.MaxBodyBytes. A truncated page is never returned.
var ErrBodyTooLarge = errors.New("response body too large")

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures (refused, reset, DNS).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents requests that hit the client timeout.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassBody represents a response whose body could not be read in
	// full, including bodies larger than the configured limit.
	ErrorClassBody ErrorClass = "body"
)

// FetchError is returned when the donation page could not be retrieved.
// A response with any status code and a readable body is not a FetchError.
type FetchError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s error", e.URL, e.ErrorClass)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
