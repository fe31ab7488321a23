package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status   StepStatus
		expected string
	}{
		{StatusSuccess, "SUCCESS"},
		{StatusWarning, "WARNING"},
		{StatusFailure, "FAILURE"},
		{StatusUnknown, "UNKNOWN"},
		{StepStatus(7), "INVALID"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestStepStatus_Valid(t *testing.T) {
	assert.True(t, StatusSuccess.Valid())
	assert.True(t, StatusUnknown.Valid())
	assert.False(t, StepStatus(-1).Valid())
	assert.False(t, StepStatus(4).Valid())
}

func TestStepStatus_APIValues(t *testing.T) {
	assert.Equal(t, 0, int(StatusSuccess))
	assert.Equal(t, 1, int(StatusWarning))
	assert.Equal(t, 2, int(StatusFailure))
	assert.Equal(t, 3, int(StatusUnknown))
}

func TestIsPlatform(t *testing.T) {
	assert.True(t, IsPlatform("dev"))
	assert.True(t, IsPlatform("test"))
	assert.True(t, IsPlatform("prod"))
	assert.False(t, IsPlatform("PROD"))
	assert.False(t, IsPlatform("staging"))
}

func TestPhases_Order(t *testing.T) {
	assert.Equal(t, []Phase{
		PhaseEnvironment,
		PhaseConfigBase,
		PhaseAPIRead,
		PhaseScheduleCheck,
		PhaseConfigFinal,
		PhaseOutputDirs,
	}, Phases())
}
