// Package lifecycle runs the initialization pipeline of a scenario: six
// strictly ordered phases that turn the process environment into a ready
// ExecutionContext.
//
// Every failure leaves the pipeline as a *errors.LifecycleError. Its domain
// depends on whether the scenario metadata fetch has returned: before, the
// failure is PRE_RESULT and nothing may be reported; after, it is
// POST_RESULT and a synthetic failure report must be attempted.
//
// Import rules:
//   - CAN import: internal/api, internal/clock, internal/config,
//     internal/constants, internal/domain, internal/errors,
//     internal/execution, internal/rotation, internal/schedule, std lib
//   - MUST NOT import: internal/cli, internal/tui, internal/runner
package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/clock"
	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/rotation"
	"github.com/mrz1836/injecteur/internal/schedule"
)

// EnvironmentLoader reads the process environment.
type EnvironmentLoader func(ctx context.Context) (*config.Environment, error)

// ConfigResolver builds the scenario configuration. *config.Resolver implements it.
type ConfigResolver interface {
	Resolve(ctx context.Context, env *config.Environment) (config.Configuration, error)
}

// MetadataFetcher reads scenario metadata. *api.Client implements it.
type MetadataFetcher interface {
	GetScenario(ctx context.Context, id domain.Identifier) (*domain.ScenarioMetadata, error)
}

// Authorizer is the scheduling gate. *schedule.Gate implements it.
type Authorizer interface {
	Authorize(meta *domain.ScenarioMetadata, now time.Time) error
}

// DataRotator selects the next rotation value. *rotation.Rotator implements it.
type DataRotator interface {
	Next(ctx context.Context, application, scenario string, values []any) (any, error)
}

// Controller runs the initialization pipeline.
type Controller struct {
	loadEnv  EnvironmentLoader
	resolver ConfigResolver
	gate     Authorizer
	clock    clock.Clock
	metrics  Metrics
	logger   zerolog.Logger

	newFetcher func(env *config.Environment) MetadataFetcher
	newRotator func(env *config.Environment) DataRotator
	mkdirAll   func(path string, perm os.FileMode) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithEnvironmentLoader replaces config.LoadEnvironment.
func WithEnvironmentLoader(load EnvironmentLoader) Option {
	return func(c *Controller) { c.loadEnv = load }
}

// WithResolver replaces the configuration resolver.
func WithResolver(r ConfigResolver) Option {
	return func(c *Controller) { c.resolver = r }
}

// WithFetcher replaces the API client used by API_READ.
func WithFetcher(newFetcher func(env *config.Environment) MetadataFetcher) Option {
	return func(c *Controller) { c.newFetcher = newFetcher }
}

// WithGate replaces the scheduling gate.
func WithGate(g Authorizer) Option {
	return func(c *Controller) { c.gate = g }
}

// WithRotator replaces the data rotator used by CONFIG_FINAL.
func WithRotator(newRotator func(env *config.Environment) DataRotator) Option {
	return func(c *Controller) { c.newRotator = newRotator }
}

// WithClock replaces the time source.
func WithClock(cl clock.Clock) Option {
	return func(c *Controller) { c.clock = cl }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// withMkdirAll replaces os.MkdirAll for OUTPUT_DIRS.
func withMkdirAll(fn func(string, os.FileMode) error) Option {
	return func(c *Controller) { c.mkdirAll = fn }
}

// NewController creates a Controller wired to the real collaborators.
func NewController(logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		loadEnv:  config.LoadEnvironment,
		resolver: config.NewResolver(logger),
		gate:     schedule.NewGate(schedule.NewFrenchCalendar(), logger),
		clock:    clock.RealClock{},
		metrics:  NoopMetrics{},
		logger:   logger.With().Str("component", "lifecycle").Logger(),
		newFetcher: func(env *config.Environment) MetadataFetcher {
			return api.NewClient(env.APIBaseURL, logger)
		},
		newRotator: func(env *config.Environment) DataRotator {
			return rotation.NewRotator(env.OutputPath, logger)
		},
		mkdirAll: os.MkdirAll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize runs phases ENVIRONMENT to OUTPUT_DIRS. The returned
// ExecutionContext is never nil: on failure it holds whatever was known
// when the pipeline stopped, which is what a failure report needs.
func (c *Controller) Initialize(ctx context.Context) (*ExecutionContext, error) {
	ec := newExecutionContext(uuid.NewString(), c.clock.Now(), c.metrics)
	logger := c.logger.With().Str("run_id", ec.RunID).Logger()
	ctx = logger.WithContext(ctx)

	phases := []struct {
		phase constants.Phase
		run   func(context.Context, *ExecutionContext) error
	}{
		{constants.PhaseEnvironment, c.environment},
		{constants.PhaseConfigBase, c.configBase},
		{constants.PhaseAPIRead, c.apiRead},
		{constants.PhaseScheduleCheck, c.scheduleCheck},
		{constants.PhaseConfigFinal, c.configFinal},
		{constants.PhaseOutputDirs, c.outputDirs},
	}

	for _, p := range phases {
		ec.Phase = p.phase
		start := c.clock.Now()
		if err := c.runPhase(ctx, ec, p.run); err != nil {
			le := c.classify(ec, err)
			c.metrics.InitFailed(le)
			logger.Error().
				Err(le.Err).
				Str("phase", le.Phase).
				Str("domain", string(le.Domain)).
				Str("kind", string(le.Kind)).
				Msg("initialization failed")
			return ec, le
		}
		c.metrics.PhaseCompleted(p.phase, c.clock.Now().Sub(start))
		logger.Debug().Str("phase", string(p.phase)).Msg("phase completed")
	}

	ec.Phase = constants.PhaseReady
	logger.Info().
		Str("scenario", ec.ScenarioName()).
		Str("identifiant", ec.Identifier().String()).
		Bool("lecture", ec.Env.Lecture).
		Bool("inscription", ec.Env.Inscription).
		Msg("scenario ready")
	return ec, nil
}

// runPhase runs fn, turning a panic into an error.
func (c *Controller) runPhase(ctx context.Context, ec *ExecutionContext, fn func(context.Context, *ExecutionContext) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic: %v", r)
		}
	}()
	return fn(ctx, ec)
}

// classify tags err with the phase in progress and the current domain.
// An error that is already a LifecycleError keeps its own domain.
func (c *Controller) classify(ec *ExecutionContext, err error) *errors.LifecycleError {
	if le, ok := errors.AsLifecycleError(err); ok {
		return le
	}
	dom := errors.DomainPreResult
	if ec.resultsReachable {
		dom = errors.DomainPostResult
	}
	return errors.NewLifecycleError(dom, errors.KindOf(err), string(ec.Phase), "", err)
}

// environment is phase 1.
func (c *Controller) environment(ctx context.Context, ec *ExecutionContext) error {
	env, err := c.loadEnv(ctx)
	if err != nil {
		return err
	}
	ec.Env = env
	return nil
}

// configBase is phase 2.
func (c *Controller) configBase(ctx context.Context, ec *ExecutionContext) error {
	cfg, err := c.resolver.Resolve(ctx, ec.Env)
	if err != nil {
		return err
	}
	ec.Config = cfg
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	ec.Settings = settings
	return nil
}

// apiRead is phase 3. Transport failures keep the failure PRE_RESULT; a
// response that arrived but cannot be used is POST_RESULT.
func (c *Controller) apiRead(ctx context.Context, ec *ExecutionContext) error {
	logger := zerolog.Ctx(ctx)
	if !ec.Env.Lecture {
		logger.Info().Msg("lecture disabled, scenario metadata and planning skipped")
		return nil
	}

	id := ec.Identifier()
	if id.IsZero() {
		return fmt.Errorf("%w: key %q", errors.ErrMissingIdentifier, config.KeyIdentifier)
	}

	meta, err := c.newFetcher(ec.Env).GetScenario(ctx, id)
	if stderrors.Is(err, errors.ErrAPIRequest) {
		return err
	}
	ec.resultsReachable = true
	if err != nil {
		return err
	}
	ec.Metadata = meta
	return nil
}

// scheduleCheck is phase 4.
func (c *Controller) scheduleCheck(ctx context.Context, ec *ExecutionContext) error {
	if ec.Metadata == nil {
		return nil
	}
	if err := c.gate.Authorize(ec.Metadata, c.clock.Now()); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Msg("execution authorized by planning")
	return nil
}

// configFinal is phase 5.
func (c *Controller) configFinal(ctx context.Context, ec *ExecutionContext) error {
	cfg := ec.Config

	if ec.Metadata != nil {
		if app := ec.Metadata.ApplicationName(); app != "" {
			cfg[config.KeyApplicationName] = app
		}
		if name := ec.Metadata.ScenarioName(); name != "" {
			cfg[config.KeyScenario] = name
		}
	}

	if ec.Env.IsExadata() {
		cfg[config.KeyExadataImages] = filepath.Join(ec.Env.ScenariosPath, constants.ExadataImagesDir, ec.Env.Scenario)
	}

	if key := ec.Settings.Rotation; key != "" {
		if err := c.rotate(ctx, ec, key); err != nil {
			return err
		}
	}

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	ec.Settings = settings
	return nil
}

// rotate stores the next value of the list at key under key_courant.
func (c *Controller) rotate(ctx context.Context, ec *ExecutionContext, key string) error {
	values, ok := ec.Config[key].([]any)
	if !ok {
		return fmt.Errorf("%w: rotation key %q is not a list", errors.ErrConfigMalformed, key)
	}
	value, err := c.newRotator(ec.Env).Next(ctx, ec.Config.String(config.KeyApplicationName), ec.Env.Scenario, values)
	if err != nil {
		return err
	}
	ec.Config[key+rotation.CurrentSuffix] = value
	return nil
}

// outputDirs is phase 6. It never fails: a directory that cannot be created
// disables screenshots and reports for the run.
func (c *Controller) outputDirs(ctx context.Context, ec *ExecutionContext) error {
	app := ec.Config.String(config.KeyApplicationName)
	if ec.Metadata == nil || app == "" {
		app = constants.NoAPIApplication
	}
	stamp := ec.Start
	rel := filepath.Join(app, ec.ScenarioName(), stamp.Format("2006-01-02"), stamp.Format("15:04:05"))

	screenshots := filepath.Join(ec.Env.OutputPath, constants.ScreenshotsDir, rel)
	reports := filepath.Join(ec.Env.OutputPath, constants.ReportsDir, rel)

	for _, dir := range []string{screenshots, reports} {
		if err := c.mkdirAll(dir, constants.DirPerm); err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(fmt.Errorf("%w: %w", errors.ErrOutputDirs, err)).
				Str("path", dir).
				Msg("output directories unavailable, screenshots and reports disabled")
			ec.ScreenshotDir, ec.ReportDir = "", ""
			ec.Config[config.KeyScreenshotDir], ec.Config[config.KeyReportDir] = "", ""
			return nil
		}
	}

	ec.ScreenshotDir, ec.ReportDir = screenshots, reports
	ec.Config[config.KeyScreenshotDir], ec.Config[config.KeyReportDir] = screenshots, reports
	return nil
}
