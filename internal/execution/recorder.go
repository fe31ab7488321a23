package execution

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
)

// StepRecorder measures one step from Begin to Finish.
type StepRecorder struct {
	name   string
	start  time.Time
	logger zerolog.Logger
}

// Begin starts recording step name at now.
func Begin(name string, now time.Time, logger zerolog.Logger) *StepRecorder {
	l := logger.With().Str("step_name", name).Logger()
	l.Info().Msg("step started")
	return &StepRecorder{name: name, start: now, logger: l}
}

// Name returns the step name.
func (r *StepRecorder) Name() string {
	return r.name
}

// Finish closes the step at now and returns its immutable result.
// The outcome is logged at info, warn or error level depending on status.
func (r *StepRecorder) Finish(order int, status constants.StepStatus, url, comment string, now time.Time) domain.StepResult {
	result := domain.StepResult{
		Name:     r.name,
		Order:    order,
		Date:     domain.FormatTimestamp(r.start),
		Duration: domain.SecondsOf(now.Sub(r.start)),
		Status:   status,
		URL:      url,
		Comment:  comment,
	}

	var event *zerolog.Event
	switch status {
	case constants.StatusSuccess:
		event = r.logger.Info()
	case constants.StatusWarning:
		event = r.logger.Warn()
	default:
		event = r.logger.Error()
	}
	event.
		Int("order", order).
		Str("status", status.String()).
		Int64("duration_ms", now.Sub(r.start).Milliseconds()).
		Str("url", url).
		Msg(comment)

	return result
}
