package lifecycle

import (
	"time"

	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/execution"
)

// ExecutionContext is the state of one run, threaded from the first phase to
// the final report. It is owned by a single goroutine.
type ExecutionContext struct {
	// RunID correlates the log lines of one run.
	RunID string

	// Phase is the phase in progress, or PhaseReady once Initialize returned.
	Phase constants.Phase

	Env      *config.Environment
	Config   config.Configuration
	Settings *config.Settings

	// Metadata is nil when lecture is disabled.
	Metadata *domain.ScenarioMetadata

	Start time.Time

	// ScreenshotDir and ReportDir are empty when output is disabled.
	ScreenshotDir string
	ReportDir     string

	resultsReachable bool
	agg              *execution.Aggregator
	counter          int
	metrics          Metrics
}

func newExecutionContext(runID string, start time.Time, metrics Metrics) *ExecutionContext {
	return &ExecutionContext{
		RunID:   runID,
		Phase:   constants.PhaseEnvironment,
		Start:   start,
		agg:     execution.NewAggregator(),
		metrics: metrics,
	}
}

// ResultsReachable reports whether the metadata fetch returned, which makes
// failures reportable.
func (ec *ExecutionContext) ResultsReachable() bool {
	return ec.resultsReachable
}

// Identifier returns the scenario identifier, or "" when unknown.
func (ec *ExecutionContext) Identifier() domain.Identifier {
	if ec.Settings != nil && !ec.Settings.Identifier.IsZero() {
		return ec.Settings.Identifier
	}
	return ec.Config.Identifier()
}

// ScenarioName returns nom_scenario, falling back to the environment.
func (ec *ExecutionContext) ScenarioName() string {
	if name := ec.Config.String(config.KeyScenario); name != "" {
		return name
	}
	if ec.Env != nil {
		return ec.Env.Scenario
	}
	return ""
}

// NextStep returns the order of the next step, starting at 1.
func (ec *ExecutionContext) NextStep() int {
	ec.counter++
	return ec.counter
}

// Record stores a finalized step.
func (ec *ExecutionContext) Record(step domain.StepResult) {
	ec.agg.Record(step)
	ec.metrics.StepRecorded(step.Status)
}

// Summary reduces the recorded steps.
func (ec *ExecutionContext) Summary() execution.Summary {
	return ec.agg.Finalize()
}

// Reset drops the recorded steps and restarts the counter.
func (ec *ExecutionContext) Reset() {
	ec.agg.Reset()
	ec.counter = 0
}

// Steps returns the recorded steps.
func (ec *ExecutionContext) Steps() []domain.StepResult {
	return ec.agg.Steps()
}

// Header returns the execution-level fields of the report.
func (ec *ExecutionContext) Header() execution.Header {
	h := execution.Header{
		Identifier:  ec.Identifier(),
		Scenario:    ec.ScenarioName(),
		Start:       ec.Start,
		Injector:    execution.InjectorName(),
		InterfaceIP: execution.InterfaceIP(),
	}
	if ec.Env != nil {
		h.Browser = string(ec.Env.Browser)
	}
	return h
}

// Report builds the report of a completed run. initial is the summary of
// the first attempt when the run was relaunched, nil otherwise.
func (ec *ExecutionContext) Report(initial *execution.Summary) *domain.ExecutionReport {
	r := execution.BuildReport(ec.Header(), ec.agg)
	if initial != nil {
		r.InitialStatus = initial.Status
		r.InitialComment = initial.Comment
	}
	return r
}

// FailureReport synthesizes the report of an aborted initialization.
func (ec *ExecutionContext) FailureReport(le *errors.LifecycleError, now time.Time) *domain.ExecutionReport {
	return execution.BuildFailureReport(ec.Header(), le.Phase, now.Sub(ec.Start))
}
