package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a package is not found.
var ErrNotFound = errors.New("not found")

// ErrFetchDownloads is returned when download statistics cannot be fetched.
var ErrFetchDownloads = errors.New("failed to fetch download data")

var (
	ErrEmptyName          = errors.New("package name is required")
	ErrInvalidRange       = errors.New("invalid range")
	ErrInvalidGranularity = errors.New("invalid granularity")
)

// NotFoundError wraps ErrNotFound with additional context.
type NotFoundError struct {
	Ecosystem string
	Name      string
	Err       error // underlying cause, may be nil
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: package %s not found: %v", e.Ecosystem, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: package %s not found", e.Ecosystem, e.Name)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// FetchError wraps ErrFetchDownloads with additional context.
type FetchError struct {
	Ecosystem string
	Name      string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Ecosystem, e.Name, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchDownloads, e.Err}
}

// MalformedError reports an upstream response that failed validation.
type MalformedError struct {
	URL    string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}
