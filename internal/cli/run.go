package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/clock"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/diagnose"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/execution"
	"github.com/mrz1836/injecteur/internal/lifecycle"
	"github.com/mrz1836/injecteur/internal/report"
	"github.com/mrz1836/injecteur/internal/runner"
	"github.com/mrz1836/injecteur/internal/signal"
	"github.com/mrz1836/injecteur/internal/tui"
)

// runOptions holds the run command flags and the seams used by tests.
type runOptions struct {
	metricsFile string

	clock      clock.Clock
	controller []lifecycle.Option
	registry   func(proxy string) *runner.Registry
}

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newRunCmd(flags, &runOptions{}))
}

func newRunCmd(flags *GlobalFlags, opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Initialize and run the scenario named by SCENARIO",
		Long: `Run the scenario named by the SCENARIO environment variable.

The scenario is initialized in six phases (environment, base configuration,
API read, planning check, final configuration, output directories), then
its steps run in order. One execution result is reported at the end, or a
synthetic failure when initialization stops after the API read.

Examples:
  SCENARIO=portail_rh injecteur run
  SCENARIO=portail_rh LECTURE=false injecteur run --output json
  injecteur run --metrics-file /var/lib/node_exporter/injecteur.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			v.SetEnvPrefix(constants.ToolEnvPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			if err := v.BindPFlag("metrics-file", cmd.Flags().Lookup("metrics-file")); err != nil {
				return err
			}
			opts.metricsFile = v.GetString("metrics-file")
			return runScenario(cmd.Context(), cmd.OutOrStdout(), flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "",
		"Prometheus textfile to write (default: metrics.prom in the report directory)")

	return cmd
}

func runScenario(ctx context.Context, w io.Writer, flags *GlobalFlags, opts *runOptions) error {
	logger := GetLogger()
	out := tui.NewOutput(w, flags.Output)

	sh := signal.NewHandler(ctx)
	defer sh.Stop()
	ctx = sh.Context()

	clk := opts.clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	metrics := lifecycle.NewPrometheusMetrics(scenarioFromEnv())
	controllerOpts := append([]lifecycle.Option{
		lifecycle.WithMetrics(metrics),
		lifecycle.WithClock(clk),
	}, opts.controller...)

	ec, err := lifecycle.NewController(logger, controllerOpts...).Initialize(ctx)
	if err != nil {
		le, _ := errors.AsLifecycleError(err)
		if le != nil && le.Reportable() {
			failure := ec.FailureReport(le, clk.Now())
			newReporter(ec, logger).SubmitFailure(ctx, failure)
			saveReport(ec, failure, logger)
		}
		writeMetrics(ec, metrics, opts.metricsFile, logger)
		return err
	}

	client := api.NewClient(ec.Env.APIBaseURL, logger)

	newRegistry := opts.registry
	if newRegistry == nil {
		newRegistry = defaultRegistry
	}
	runnerOpts := []runner.Option{
		runner.WithClock(clk),
		runner.WithDiagnoser(diagnose.New(ec.Env.ScenariosPath, ec.Settings.ErrorFiles, logger)),
	}
	if ec.Env.Relance && ec.Env.Lecture {
		runnerOpts = append(runnerOpts, runner.WithRelance(client, ec.Identifier()))
	}

	res, runErr := runner.New(newRegistry(ec.Env.Proxy), logger, runnerOpts...).
		Run(ctx, ec, ec.Settings.Steps, ec.Config)

	if sig := sh.Received(); sig != nil {
		logger.Warn().Str("signal", sig.String()).Msg("scenario interrupted")
	}

	var initial *execution.Summary
	if res.Relaunched {
		initial = &res.Initial
	}
	result := ec.Report(initial)

	saveReport(ec, result, logger)
	newReporter(ec, logger).Submit(ctx, result)
	metrics.RunFinished(result.Status, result.Duration.Duration())
	writeMetrics(ec, metrics, opts.metricsFile, logger)

	out.Report(result)
	if runErr != nil {
		return errors.NewExitCode2Error(runErr)
	}
	return nil
}

func defaultRegistry(proxy string) *runner.Registry {
	registry := runner.NewRegistry()
	registry.Register(runner.DefaultExecutor, runner.NewHTTPExecutor(runner.WithProxy(proxy)))
	return registry
}

func newReporter(ec *lifecycle.ExecutionContext, logger zerolog.Logger) *report.Reporter {
	if ec.Env == nil {
		return report.NewReporter(nil, false, logger)
	}
	return report.NewReporter(api.NewClient(ec.Env.APIBaseURL, logger), ec.Env.Inscription, logger)
}

// saveReport writes scenario.json when the report directory exists.
func saveReport(ec *lifecycle.ExecutionContext, r *domain.ExecutionReport, logger zerolog.Logger) {
	if ec.ReportDir == "" {
		return
	}
	path, err := execution.SaveJSON(ec.ReportDir, r)
	if err != nil {
		logger.Warn().Err(err).Str("dir", ec.ReportDir).Msg("failed to save execution report")
		return
	}
	logger.Debug().Str("path", path).Msg("execution report saved")
}

// writeMetrics writes the textfile to path, or next to the report when
// path is empty. Without either, metrics are dropped.
func writeMetrics(ec *lifecycle.ExecutionContext, m *lifecycle.PrometheusMetrics, path string, logger zerolog.Logger) {
	if path == "" && ec != nil && ec.ReportDir != "" {
		path = filepath.Join(ec.ReportDir, constants.MetricsFileName)
	}
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn().Err(err).Msg("failed to write metrics")
	}
}

// scenarioFromEnv returns the scenario name for metric labels, before the
// environment is validated.
func scenarioFromEnv() string {
	if name := strings.TrimSpace(os.Getenv(constants.EnvScenario)); name != "" {
		return name
	}
	return strings.TrimSpace(os.Getenv(constants.EnvScenarioAlias))
}
