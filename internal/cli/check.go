package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/schedule"
	"github.com/mrz1836/injecteur/internal/tui"
)

// AddCheckCommand adds the check command group to the root command.
func AddCheckCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a scenario without running it",
	}
	cmd.AddCommand(newCheckPlanningCmd(flags))
	root.AddCommand(cmd)
}

type planningResult struct {
	Identifier domain.Identifier `json:"identifiant"`
	Scenario   string            `json:"scenario"`
	At         time.Time         `json:"at"`
	Authorized bool              `json:"authorized"`
	Reason     string            `json:"reason,omitempty"`
	Windows    []string          `json:"windows,omitempty"`
}

func newCheckPlanningCmd(flags *GlobalFlags) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "planning",
		Short: "Tell whether the planning permits the scenario now",
		Long: `Read the scenario metadata from the injector API and evaluate its
planning and holiday flag, without side effects.

Examples:
  SCENARIO=portail_rh injecteur check planning
  SCENARIO=portail_rh injecteur check planning --at 2026-05-01T09:30:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.ParseInLocation("2006-01-02T15:04:05", at, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at %q: %w", at, err)
				}
				now = parsed
			}
			return runCheckPlanning(cmd.Context(), cmd.OutOrStdout(), flags, now)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "local time to evaluate (YYYY-MM-DDTHH:MM:SS)")
	return cmd
}

func runCheckPlanning(ctx context.Context, w io.Writer, flags *GlobalFlags, now time.Time) error {
	logger := GetLogger()
	out := tui.NewOutput(w, flags.Output)
	ctx = logger.WithContext(ctx)

	env, err := config.LoadEnvironment(ctx)
	if err != nil {
		return err
	}
	cfg, err := config.NewResolver(logger).Resolve(ctx, env)
	if err != nil {
		return err
	}

	meta, err := api.NewClient(env.APIBaseURL, logger).GetScenario(ctx, cfg.Identifier())
	if err != nil {
		return err
	}

	result := planningResult{
		Identifier: cfg.Identifier(),
		Scenario:   meta.ScenarioName(),
		At:         now,
		Authorized: true,
	}
	gateErr := schedule.NewGate(schedule.NewFrenchCalendar(), logger).Authorize(meta, now)
	if gateErr != nil {
		result.Authorized = false
		result.Reason = gateErr.Error()
		if denied, ok := schedule.IsDenied(gateErr); ok {
			result.Windows = denied.Windows
		}
	}

	if flags.Output == OutputJSON {
		if err := out.JSON(result); err != nil {
			return err
		}
		return gateErr
	}

	if gateErr != nil {
		return gateErr
	}
	out.Success(fmt.Sprintf("%s autorisé le %s", result.Scenario, now.Format("2006-01-02 15:04:05")))
	return nil
}
