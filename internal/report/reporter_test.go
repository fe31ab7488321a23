package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

type fakeSubmitter struct {
	calls []*domain.ExecutionReport
	err   error
}

func (f *fakeSubmitter) SubmitExecution(_ context.Context, r *domain.ExecutionReport) error {
	f.calls = append(f.calls, r)
	return f.err
}

func sampleReport() *domain.ExecutionReport {
	return &domain.ExecutionReport{
		Identifier: "1042",
		Scenario:   "portail_rh",
		Status:     constants.StatusSuccess,
		StepCount:  1,
		Steps:      []domain.StepResult{{Name: "Accueil", Order: 1}},
	}
}

func TestReporter_Submit(t *testing.T) {
	t.Parallel()

	api := &fakeSubmitter{}
	p := NewReporter(api, true, zerolog.Nop())

	assert.Equal(t, OutcomeSubmitted, p.Submit(context.Background(), sampleReport()))
	require.Len(t, api.calls, 1)
}

func TestReporter_ExactlyOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	api := &fakeSubmitter{}
	p := NewReporter(api, true, zerolog.New(&buf))

	p.Submit(context.Background(), sampleReport())
	assert.Equal(t, OutcomeRefused, p.Submit(context.Background(), sampleReport()))
	assert.Equal(t, OutcomeRefused, p.SubmitFailure(context.Background(), sampleReport()))

	assert.Len(t, api.calls, 1)
	assert.Contains(t, buf.String(), errors.ErrAlreadySubmitted.Error())
}

func TestReporter_InscriptionDisabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	api := &fakeSubmitter{}
	p := NewReporter(api, false, zerolog.New(&buf))

	assert.Equal(t, OutcomeDisabled, p.Submit(context.Background(), sampleReport()))
	assert.Empty(t, api.calls)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"payload":{"identifiant":1042`)
}

func TestReporter_APIFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	api := &fakeSubmitter{err: fmt.Errorf("%w: HTTP 500", errors.ErrAPIRequest)}
	p := NewReporter(api, true, zerolog.New(&buf))

	assert.Equal(t, OutcomeFailed, p.Submit(context.Background(), sampleReport()))
	assert.Len(t, api.calls, 1)
	assert.Contains(t, buf.String(), "HTTP 500")
	assert.Contains(t, buf.String(), `"payload"`)
}

func TestReporter_SubmitFailure(t *testing.T) {
	t.Parallel()

	t.Run("with identifier", func(t *testing.T) {
		t.Parallel()
		api := &fakeSubmitter{}
		p := NewReporter(api, true, zerolog.Nop())

		failure := &domain.ExecutionReport{Identifier: "7", Status: constants.StatusUnknown, Steps: []domain.StepResult{}}
		assert.Equal(t, OutcomeSubmitted, p.SubmitFailure(context.Background(), failure))
		require.Len(t, api.calls, 1)
		assert.Equal(t, constants.StatusUnknown, api.calls[0].Status)
		assert.Zero(t, api.calls[0].StepCount)
	})

	t.Run("without identifier", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		api := &fakeSubmitter{}
		p := NewReporter(api, true, zerolog.New(&buf))

		assert.Equal(t, OutcomeDisabled, p.SubmitFailure(context.Background(), &domain.ExecutionReport{}))
		assert.Empty(t, api.calls)
		assert.Contains(t, buf.String(), `"payload"`)

		assert.Equal(t, OutcomeRefused, p.Submit(context.Background(), sampleReport()))
		assert.Empty(t, api.calls)
	})
}

func TestReporter_NilAPI(t *testing.T) {
	t.Parallel()

	p := NewReporter(nil, true, zerolog.Nop())
	assert.Equal(t, OutcomeDisabled, p.Submit(context.Background(), sampleReport()))
}
