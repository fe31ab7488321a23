// Package report submits the execution result of a run, at most once.
//
// Submission is best effort: failures are logged, never returned, so a
// reporting problem cannot change the exit code of a run whose steps
// already executed.
package report

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

// Submitter sends a report to the injector API. *api.Client implements it.
type Submitter interface {
	SubmitExecution(ctx context.Context, report *domain.ExecutionReport) error
}

// Outcome says what happened to a report.
type Outcome string

// Outcomes of Submit.
const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeDisabled  Outcome = "disabled"
	OutcomeFailed    Outcome = "failed"
	OutcomeRefused   Outcome = "refused"
)

// Reporter submits exactly one report per execution.
type Reporter struct {
	api         Submitter
	inscription bool
	logger      zerolog.Logger

	once sync.Once
	sent bool
}

// NewReporter creates a Reporter. When inscription is false, reports are
// logged instead of sent. api may be nil in that case.
func NewReporter(api Submitter, inscription bool, logger zerolog.Logger) *Reporter {
	return &Reporter{
		api:         api,
		inscription: inscription,
		logger:      logger.With().Str("component", "report").Logger(),
	}
}

// Submit sends r. Only the first call of a Reporter does anything; later
// calls are refused with a logged errors.ErrAlreadySubmitted.
func (p *Reporter) Submit(ctx context.Context, r *domain.ExecutionReport) Outcome {
	outcome := OutcomeRefused
	p.once.Do(func() {
		p.sent = true
		outcome = p.submit(ctx, r)
	})
	if outcome == OutcomeRefused {
		p.logger.Error().
			Err(errors.ErrAlreadySubmitted).
			Str("identifiant", r.Identifier.String()).
			Msg("second submission refused")
	}
	return outcome
}

// SubmitFailure sends the synthesized report of a failed initialization.
// Without an identifier nothing can be correlated upstream, so the payload
// is only logged.
func (p *Reporter) SubmitFailure(ctx context.Context, r *domain.ExecutionReport) Outcome {
	if r.Identifier.IsZero() {
		p.once.Do(func() { p.sent = true })
		p.logger.Warn().Msg("scenario identifier unknown, failure not reported")
		p.dump(r)
		return OutcomeDisabled
	}
	return p.Submit(ctx, r)
}

func (p *Reporter) submit(ctx context.Context, r *domain.ExecutionReport) Outcome {
	if !p.inscription || p.api == nil {
		p.logger.Warn().Str("identifiant", r.Identifier.String()).Msg("inscription disabled, result not sent")
		p.dump(r)
		return OutcomeDisabled
	}
	if err := p.api.SubmitExecution(ctx, r); err != nil {
		p.logger.Error().Err(err).Str("identifiant", r.Identifier.String()).Msg("failed to submit execution result")
		p.dump(r)
		return OutcomeFailed
	}
	return OutcomeSubmitted
}

// dump logs the would-be payload so that it is never silently lost.
func (p *Reporter) dump(r *domain.ExecutionReport) {
	data, err := json.Marshal(r)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode execution result")
		return
	}
	p.logger.Info().RawJSON("payload", data).Msg("execution result")
}
