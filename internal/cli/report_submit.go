package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/execution"
	"github.com/mrz1836/injecteur/internal/report"
	"github.com/mrz1836/injecteur/internal/tui"
)

// AddReportCommand adds the report command group to the root command.
func AddReportCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Work with saved execution reports",
	}
	cmd.AddCommand(newReportSubmitCmd(flags))
	cmd.AddCommand(newReportShowCmd(flags))
	root.AddCommand(cmd)
}

func newReportSubmitCmd(flags *GlobalFlags) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "submit <scenario.json>",
		Short: "Send a saved execution report to the injector API",
		Long: `Send a scenario.json written by a previous run, for instance after the
API was unreachable at the end of the run.

The API base URL comes from --api, then URL_BASE_API_INJECTEUR.

Examples:
  injecteur report submit /opt/scenarios_v6/rapports/RH/portail_rh/2026-03-02/09:00:00/scenario.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetDefault("api", constants.DefaultAPIBaseURL)
			if err := v.BindEnv("api", constants.EnvAPIBaseURL); err != nil {
				return err
			}
			if err := v.BindPFlag("api", cmd.Flags().Lookup("api")); err != nil {
				return err
			}
			return runReportSubmit(cmd.Context(), cmd.OutOrStdout(), flags, args[0], v.GetString("api"))
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "injector API base URL")
	return cmd
}

func runReportSubmit(ctx context.Context, w io.Writer, flags *GlobalFlags, path, apiURL string) error {
	logger := GetLogger()
	out := tui.NewOutput(w, flags.Output)

	r, err := execution.LoadJSON(path)
	if err != nil {
		return err
	}

	outcome := report.NewReporter(api.NewClient(apiURL, logger), true, logger).Submit(ctx, r)
	if outcome != report.OutcomeSubmitted {
		return fmt.Errorf("report %s not submitted: %s", path, outcome)
	}
	out.Success(fmt.Sprintf("rapport %s envoyé (%s)", r.Identifier, strings.TrimRight(apiURL, "/")))
	return nil
}

func newReportShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <scenario.json>",
		Short: "Display a saved execution report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			r, err := execution.LoadJSON(args[0])
			if err != nil {
				return err
			}
			out.Report(r)
			return nil
		},
	}
}
