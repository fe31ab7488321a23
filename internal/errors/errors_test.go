package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	injerrors "github.com/mrz1836/injecteur/internal/errors"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		injerrors.ErrMissingEnvVar,
		injerrors.ErrInvalidEnvValue,
		injerrors.ErrPathInaccessible,
		injerrors.ErrConfigNotFound,
		injerrors.ErrConfigUnreadable,
		injerrors.ErrConfigMalformed,
		injerrors.ErrCredentialsNotFound,
		injerrors.ErrDecryptFailed,
		injerrors.ErrMissingIdentifier,
		injerrors.ErrAPIRequest,
		injerrors.ErrAPIResponse,
		injerrors.ErrSchedulingDenied,
		injerrors.ErrInvalidTimeWindow,
		injerrors.ErrOutputDirs,
		injerrors.ErrScenarioFailed,
		injerrors.ErrAlreadySubmitted,
		injerrors.ErrUnknownExecutor,
		injerrors.ErrStepAssertion,
		injerrors.ErrRotationEmpty,
		injerrors.ErrLockTimeout,
	}

	for i, a := range sentinels {
		require.Error(t, a)
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "%v should not match %v", a, b)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, injerrors.Wrap(nil, "context"))
		require.NoError(t, injerrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("preserves chain", func(t *testing.T) {
		err := injerrors.Wrap(injerrors.ErrConfigNotFound, "loading scenario")
		require.ErrorIs(t, err, injerrors.ErrConfigNotFound)
		assert.Equal(t, "loading scenario: configuration file not found", err.Error())
	})

	t.Run("formats context", func(t *testing.T) {
		err := injerrors.Wrapf(injerrors.ErrAPIRequest, "GET scenario %s", "42")
		require.ErrorIs(t, err, injerrors.ErrAPIRequest)
		assert.Equal(t, "GET scenario 42: api request failed", err.Error())
	})
}

func TestLifecycleError(t *testing.T) {
	cause := injerrors.Wrap(injerrors.ErrAPIRequest, "dial tcp")
	err := injerrors.NewLifecycleError(injerrors.DomainPostResult, injerrors.KindInfrastructure, "API_READ", "metadata fetch", cause)

	assert.Equal(t, "phase API_READ failed (POST_RESULT/INFRASTRUCTURE): metadata fetch: dial tcp: api request failed", err.Error())
	require.ErrorIs(t, err, injerrors.ErrAPIRequest)
	assert.True(t, err.Reportable())

	wrapped := fmt.Errorf("initialize: %w", err)
	le, ok := injerrors.AsLifecycleError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "API_READ", le.Phase)

	_, ok = injerrors.AsLifecycleError(errors.New("plain")) //nolint:err113 // test input
	assert.False(t, ok)

	pre := injerrors.NewLifecycleError(injerrors.DomainPreResult, injerrors.KindConfig, "ENVIRONMENT", "", nil)
	assert.False(t, pre.Reportable())
	assert.Equal(t, "phase ENVIRONMENT failed (PRE_RESULT/CONFIG)", pre.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want injerrors.Kind
	}{
		{"missing env", injerrors.ErrMissingEnvVar, injerrors.KindConfig},
		{"malformed yaml", injerrors.Wrap(injerrors.ErrConfigMalformed, "x"), injerrors.KindConfig},
		{"unreadable file", injerrors.ErrConfigUnreadable, injerrors.KindInfrastructure},
		{"missing path", injerrors.Wrap(injerrors.ErrPathInaccessible, "x"), injerrors.KindInfrastructure},
		{"network", injerrors.ErrAPIRequest, injerrors.KindInfrastructure},
		{"unknown", errors.New("boom"), injerrors.KindConfig}, //nolint:err113 // test input
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, injerrors.KindOf(tc.err))
		})
	}
}

func TestActionable(t *testing.T) {
	msg, action := injerrors.Actionable(nil)
	assert.Empty(t, msg)
	assert.Empty(t, action)

	msg, action = injerrors.Actionable(injerrors.Wrap(injerrors.ErrMissingEnvVar, "SCENARIO"))
	assert.Equal(t, "A required environment variable is not set.", msg)
	assert.Contains(t, action, "SCENARIO")

	msg, action = injerrors.Actionable(injerrors.ErrSchedulingDenied)
	assert.NotEmpty(t, msg)
	assert.Empty(t, action)

	msg, _ = injerrors.Actionable(errors.New("something odd")) //nolint:err113 // test input
	assert.Equal(t, "something odd", msg)
}

func TestExitCode2Error(t *testing.T) {
	err := injerrors.NewExitCode2Error(injerrors.ErrScenarioFailed)
	assert.True(t, injerrors.IsExitCode2Error(err))
	assert.True(t, injerrors.IsExitCode2Error(fmt.Errorf("run: %w", err)))
	require.ErrorIs(t, err, injerrors.ErrScenarioFailed)
	assert.False(t, injerrors.IsExitCode2Error(injerrors.ErrScenarioFailed))
	assert.False(t, injerrors.IsExitCode2Error(nil))
}
