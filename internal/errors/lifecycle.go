package errors

import (
	"errors"
	"fmt"
)

// Domain says whether a failure happened before or after the results API
// became reachable. It decides reportability and the exit code.
type Domain string

const (
	// DomainPreResult marks failures before the scenario metadata was fetched.
	// Nothing may be reported upstream.
	DomainPreResult Domain = "PRE_RESULT"

	// DomainPostResult marks failures after the metadata fetch returned.
	// A synthetic failure report must be attempted.
	DomainPostResult Domain = "POST_RESULT"
)

// Kind is the secondary classification of a lifecycle failure.
// It is used for logs and metrics only.
type Kind string

const (
	// KindConfig covers malformed or missing settings an operator can fix.
	KindConfig Kind = "CONFIG"

	// KindInfrastructure covers unreachable paths and services.
	KindInfrastructure Kind = "INFRASTRUCTURE"
)

// LifecycleError is the single error type raised by the initialization
// pipeline. Phase is the name of the phase that failed.
type LifecycleError struct {
	Domain  Domain
	Kind    Kind
	Phase   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	msg := fmt.Sprintf("phase %s failed (%s/%s)", e.Phase, e.Domain, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// Reportable reports whether a synthetic failure result may be sent upstream.
func (e *LifecycleError) Reportable() bool {
	return e.Domain == DomainPostResult
}

// NewLifecycleError builds a tagged lifecycle error.
func NewLifecycleError(domain Domain, kind Kind, phase, message string, err error) *LifecycleError {
	return &LifecycleError{
		Domain:  domain,
		Kind:    kind,
		Phase:   phase,
		Message: message,
		Err:     err,
	}
}

// AsLifecycleError extracts a LifecycleError from an error chain.
func AsLifecycleError(err error) (*LifecycleError, bool) {
	var le *LifecycleError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// KindOf infers the secondary classification from the sentinel carried by err.
// Unreachable paths and services are INFRASTRUCTURE; everything else is CONFIG.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrPathInaccessible),
		errors.Is(err, ErrConfigUnreadable),
		errors.Is(err, ErrAPIRequest),
		errors.Is(err, ErrOutputDirs),
		errors.Is(err, ErrLockTimeout):
		return KindInfrastructure
	default:
		return KindConfig
	}
}
