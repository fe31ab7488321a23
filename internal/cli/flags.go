package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/tui"
)

// Exit codes of the injector. Supervisors read them to decide whether a
// failure result was reported upstream.
const (
	// ExitSuccess is a run whose steps all ended in SUCCESS or WARNING.
	ExitSuccess = 0
	// ExitNotReported is an initialization failure before the scenario
	// metadata was fetched, or a CLI misuse. Nothing was reported.
	ExitNotReported = 1
	// ExitReported is an initialization failure after the metadata fetch,
	// or a failed step. A failure result was attempted.
	ExitReported = 2
)

// Output format constants.
const (
	OutputText = tui.FormatText
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// LogDir overrides the directory of the rotating log file.
	LogDir string
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&flags.LogDir, "log-dir", "", "directory of the rotating log file")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper so that they can also be set
// through INJECTEUR_* environment variables (e.g. INJECTEUR_LOG_DIR).
// Explicit flags win over the environment.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command, flags *GlobalFlags) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet", "log-dir"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.ToolEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags.Output = v.GetString("output")
	flags.Verbose = v.GetBool("verbose")
	flags.Quiet = v.GetBool("quiet") && !flags.Verbose
	flags.LogDir = v.GetString("log-dir")
	return nil
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError returns the exit code for err.
//
// A lifecycle error exits 1 when PRE_RESULT and 2 when POST_RESULT; its kind
// only matters for logs and metrics. A failed run is wrapped in an
// ExitCode2Error. Anything else, including flag misuse, exits 1.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if le, ok := errors.AsLifecycleError(err); ok {
		if le.Domain == errors.DomainPostResult {
			return ExitReported
		}
		return ExitNotReported
	}
	if errors.IsExitCode2Error(err) {
		return ExitReported
	}
	return ExitNotReported
}
