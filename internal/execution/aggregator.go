// Package execution records step results and turns them into the
// execution report sent to the injector API.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors,
//     internal/fileutil, std lib
//   - MUST NOT import: internal/config, internal/lifecycle, internal/cli
package execution

import (
	"math"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
)

// Summary is the reduction of all recorded steps.
type Summary struct {
	Status   constants.StepStatus
	Duration domain.Seconds
	Comment  string
}

// Aggregator accumulates the step results of one execution, in order.
// It is owned by a single goroutine.
type Aggregator struct {
	steps []domain.StepResult
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends step.
func (a *Aggregator) Record(step domain.StepResult) {
	a.steps = append(a.steps, step)
}

// Len returns the number of recorded steps.
func (a *Aggregator) Len() int {
	return len(a.steps)
}

// Steps returns a copy of the recorded steps.
func (a *Aggregator) Steps() []domain.StepResult {
	out := make([]domain.StepResult, len(a.steps))
	copy(out, a.steps)
	return out
}

// Reset drops every recorded step, before a relance.
func (a *Aggregator) Reset() {
	a.steps = nil
}

// Finalize reduces the steps. The duration is the sum of the step
// durations; status and comment are those of the last step, which
// supersedes earlier ones. Without steps the status is UNKNOWN.
func (a *Aggregator) Finalize() Summary {
	if len(a.steps) == 0 {
		return Summary{Status: constants.StatusUnknown}
	}
	var total float64
	for _, s := range a.steps {
		total += float64(s.Duration)
	}
	last := a.steps[len(a.steps)-1]
	return Summary{
		Status:   last.Status,
		Duration: domain.Seconds(math.Round(total*1000) / 1000),
		Comment:  last.Comment,
	}
}
