// Package testutil provides shared helpers for injecteur tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors used to simulate failures in tests.
var (
	// ErrMockNetwork simulates a transport failure.
	ErrMockNetwork = errors.New("network error")

	// ErrMockAPIError simulates an API-side failure.
	ErrMockAPIError = errors.New("API error")

	// ErrMockDisk simulates an unwritable disk.
	ErrMockDisk = errors.New("disk full")
)
