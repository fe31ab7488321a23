// Package runner executes the steps of a scenario and records one
// StepResult per step.
//
// Steps run sequentially. The first failing step ends the run with a
// diagnosed FAILURE; an interrupt ends it with an UNKNOWN step. When
// relance is enabled, a failed run whose previous execution was green is
// run once more before the single report is built.
package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/clock"
	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/diagnose"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/execution"
)

// InterruptedComment is the comment of the step recorded on interrupt.
const InterruptedComment = "Scénario interrompu"

// Session receives the step results of a run. lifecycle.ExecutionContext
// implements it.
type Session interface {
	// NextStep returns the order of the next step, starting at 1.
	NextStep() int
	// Record stores a finalized step.
	Record(step domain.StepResult)
	// Summary reduces the recorded steps.
	Summary() execution.Summary
	// Reset drops every recorded step and restarts the counter.
	Reset()
}

// LastExecutionReader reads the previous execution of a scenario.
// *api.Client implements it.
type LastExecutionReader interface {
	LastExecution(ctx context.Context, id domain.Identifier) (*api.LastExecution, error)
}

// Result describes a finished run.
type Result struct {
	// Summary is the reduction of the recorded steps.
	Summary execution.Summary
	// Relaunched is true when the steps were run a second time.
	Relaunched bool
	// Initial is the summary of the first attempt; equal to Summary
	// unless Relaunched.
	Initial execution.Summary
	// Interrupted is true when the context was canceled during the run.
	Interrupted bool
}

// Runner runs scenario steps.
type Runner struct {
	registry  *Registry
	diagnoser *diagnose.Diagnoser
	clock     clock.Clock
	logger    zerolog.Logger

	relance    bool
	lastReader LastExecutionReader
	identifier domain.Identifier
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the time source.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithDiagnoser sets the diagnoser used to comment failed steps.
func WithDiagnoser(d *diagnose.Diagnoser) Option {
	return func(r *Runner) {
		r.diagnoser = d
	}
}

// WithRelance enables the second attempt of a failed run when the previous
// execution of scenario id was SUCCESS or WARNING.
func WithRelance(reader LastExecutionReader, id domain.Identifier) Option {
	return func(r *Runner) {
		r.relance = reader != nil && !id.IsZero()
		r.lastReader = reader
		r.identifier = id
	}
}

// New creates a Runner over registry.
func New(registry *Registry, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		clock:    clock.RealClock{},
		logger:   logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.diagnoser == nil {
		r.diagnoser = diagnose.NewWithPatterns(nil, logger)
	}
	return r
}

// Run executes steps, recording each result in sess. cfg supplies the
// values of {{config.key}} references. The returned error wraps
// errors.ErrScenarioFailed when a step ended the run outside SUCCESS or
// WARNING. A scenario without steps returns an UNKNOWN summary and no error.
func (r *Runner) Run(ctx context.Context, sess Session, steps []config.StepSpec, cfg config.Configuration) (*Result, error) {
	res := &Result{}
	if len(steps) == 0 {
		r.logger.Warn().Msg("scenario declares no steps")
		res.Summary = sess.Summary()
		res.Initial = res.Summary
		return res, nil
	}
	res.Interrupted = r.attempt(ctx, sess, steps, cfg)
	res.Summary = sess.Summary()
	res.Initial = res.Summary

	if res.Summary.Status == constants.StatusFailure && !res.Interrupted && r.shouldRelance(ctx) {
		r.logger.Warn().Msg("relaunching scenario after failure")
		sess.Reset()
		res.Relaunched = true
		res.Interrupted = r.attempt(ctx, sess, steps, cfg)
		res.Summary = sess.Summary()
	}

	switch res.Summary.Status {
	case constants.StatusSuccess, constants.StatusWarning:
		return res, nil
	default:
		return res, fmt.Errorf("%w: %s", errors.ErrScenarioFailed, res.Summary.Comment)
	}
}

// attempt runs the steps once and reports whether it was interrupted.
func (r *Runner) attempt(ctx context.Context, sess Session, steps []config.StepSpec, cfg config.Configuration) bool {
	lastURL := cfg.String(config.KeyInitialURL)
	for _, spec := range steps {
		order := sess.NextStep()
		rec := execution.Begin(spec.Name, r.clock.Now(), r.logger)

		if ctx.Err() != nil {
			sess.Record(rec.Finish(order, constants.StatusUnknown, lastURL, InterruptedComment, r.clock.Now()))
			return true
		}

		outcome, err := r.execute(ctx, spec, cfg)
		if outcome.URL != "" {
			lastURL = outcome.URL
		}
		if err != nil {
			if ctx.Err() != nil {
				sess.Record(rec.Finish(order, constants.StatusUnknown, lastURL, InterruptedComment, r.clock.Now()))
				return true
			}
			comment := r.diagnoser.Comment(ctx, order, spec.Name, lastURL, err, outcome.Page)
			sess.Record(rec.Finish(order, constants.StatusFailure, lastURL, comment, r.clock.Now()))
			return false
		}
		sess.Record(rec.Finish(order, outcome.Status, lastURL, outcome.Comment, r.clock.Now()))
		if outcome.Status >= constants.StatusFailure {
			return false
		}
	}
	return false
}

func (r *Runner) execute(ctx context.Context, spec config.StepSpec, cfg config.Configuration) (out Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step %q panicked: %v", spec.Name, p)
		}
	}()

	executor, err := r.registry.Get(spec.Type)
	if err != nil {
		return Outcome{}, err
	}
	resolved, err := resolveStep(spec, cfg)
	if err != nil {
		return Outcome{URL: resolved.URL}, err
	}
	out, err = executor.Execute(ctx, resolved)
	if err == nil && !out.Status.Valid() {
		out.Status = constants.StatusSuccess
	}
	return out, err
}

// shouldRelance asks the API for the previous execution. Any lookup error
// disables the relance.
func (r *Runner) shouldRelance(ctx context.Context) bool {
	if !r.relance {
		return false
	}
	last, err := r.lastReader.LastExecution(ctx, r.identifier)
	if err != nil {
		r.logger.Warn().Err(err).Msg("previous execution unavailable, no relance")
		return false
	}
	r.logger.Info().Str("previous_status", last.InitialStatus.String()).Msg("previous execution read")
	return last.InitialStatus < constants.StatusFailure
}
