package runner

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/diagnose"
	"github.com/mrz1836/injecteur/internal/errors"
)

// DefaultExecutor is used for steps that declare no type.
const DefaultExecutor = "http"

// Outcome is what an executor observed while running one step.
type Outcome struct {
	// Status is SUCCESS or WARNING for a step that completed.
	Status constants.StepStatus
	// URL is the target at the end of the step.
	URL string
	// Comment describes a completed step.
	Comment string
	// Page is the content left on screen, inspected when the step failed.
	Page diagnose.Page
}

// Executor runs one kind of step. A returned error fails the step; the
// Outcome is still used for its URL and Page.
type Executor interface {
	Execute(ctx context.Context, step config.StepSpec) (Outcome, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, step config.StepSpec) (Outcome, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, step config.StepSpec) (Outcome, error) {
	return f(ctx, step)
}

// Registry maps step types to executors.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds or replaces the executor of a step type.
func (r *Registry) Register(name string, e Executor) {
	r.executors[name] = e
}

// Get returns the executor of a step type. An empty type selects DefaultExecutor.
func (r *Registry) Get(name string) (Executor, error) {
	if name == "" {
		name = DefaultExecutor
	}
	e, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", errors.ErrUnknownExecutor, name, r.Names())
	}
	return e, nil
}

// Names returns the registered step types in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.executors))
}
