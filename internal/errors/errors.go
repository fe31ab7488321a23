// Package errors provides centralized error handling for injecteur.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application, and the tagged LifecycleError raised by the
// initialization pipeline. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrMissingEnvVar indicates that a required environment variable is unset or empty.
	ErrMissingEnvVar = errors.New("missing environment variable")

	// ErrInvalidEnvValue indicates that an environment variable holds a value
	// outside of its accepted set (booleans, enums).
	ErrInvalidEnvValue = errors.New("invalid environment value")

	// ErrPathInaccessible indicates that a required filesystem path does not
	// exist or cannot be read.
	ErrPathInaccessible = errors.New("path inaccessible")

	// ErrConfigNotFound indicates that a scenario or common configuration file is missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigUnreadable indicates that a configuration file exists but cannot be read.
	ErrConfigUnreadable = errors.New("configuration file unreadable")

	// ErrConfigMalformed indicates that a configuration file is not valid YAML
	// or does not hold a mapping at its root.
	ErrConfigMalformed = errors.New("configuration file malformed")

	// ErrCredentialsNotFound indicates that the credential file referenced by
	// utilisateur_isac is missing or has no section for the active platform.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrDecryptFailed indicates that an encrypted credential value could not be decrypted.
	ErrDecryptFailed = errors.New("credential decryption failed")

	// ErrMissingIdentifier indicates that the resolved configuration carries
	// no scenario identifier, so the remote API cannot be queried.
	ErrMissingIdentifier = errors.New("scenario identifier missing")

	// ErrAPIRequest indicates that a call to the results API could not be
	// completed (network error, timeout).
	ErrAPIRequest = errors.New("api request failed")

	// ErrAPIResponse indicates that the results API answered with an unexpected
	// status code, an empty body, or a body that cannot be decoded.
	ErrAPIResponse = errors.New("unexpected api response")

	// ErrSchedulingDenied indicates that the scenario is not allowed to run now.
	ErrSchedulingDenied = errors.New("execution not permitted by planning")

	// ErrInvalidTimeWindow indicates a planning entry with a malformed time or
	// a start time that is not before its end time.
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrOutputDirs indicates that the screenshot or report directories could not be created.
	ErrOutputDirs = errors.New("output directories unavailable")

	// ErrScenarioFailed indicates that at least one scenario step ended in FAILURE.
	ErrScenarioFailed = errors.New("scenario failed")

	// ErrAlreadySubmitted indicates a second result submission for the same execution.
	ErrAlreadySubmitted = errors.New("execution result already submitted")

	// ErrUnknownExecutor indicates a step whose type has no registered executor.
	ErrUnknownExecutor = errors.New("no executor registered for step type")

	// ErrStepAssertion indicates that a step ran but its expectations were not met.
	ErrStepAssertion = errors.New("step assertion failed")

	// ErrRotationEmpty indicates a rotation key that holds no values.
	ErrRotationEmpty = errors.New("rotation list is empty")

	// ErrLockTimeout indicates that a file lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrInvalidOutputFormat indicates an unsupported --output value.
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
