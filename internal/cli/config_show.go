package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/tui"
)

// ConfigSource says where a configuration value came from.
type ConfigSource string

const (
	// SourceEnv is a value taken from the process environment.
	SourceEnv ConfigSource = "env"
	// SourceFile is a value read from the scenario or common .conf files.
	SourceFile ConfigSource = "fichier"
)

// ConfigValueWithSource is a configuration value with its source.
type ConfigValueWithSource struct {
	Value  any          `json:"value" yaml:"value"`
	Source ConfigSource `json:"source" yaml:"source"`
}

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the scenario configuration",
	}
	cmd.AddCommand(newConfigShowCmd(flags))
	root.AddCommand(cmd)
}

func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the resolved scenario configuration",
		Long: `Display the configuration of the scenario named by SCENARIO, as the
run command resolves it before reading the API: environment, scenario
file, common file and decrypted credentials, collapsed for the platform.

Each key is annotated with its source (env or fichier). Passwords, keys
and tokens are masked.

Examples:
  SCENARIO=portail_rh injecteur config show
  SCENARIO=portail_rh injecteur config show --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
}

func runConfigShow(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
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

	values := annotate(cfg, env)
	if flags.Output == OutputJSON {
		return out.JSON(values)
	}
	return writeConfigYAML(w, values)
}

// annotate masks sensitive values and tags each key with its source.
func annotate(cfg config.Configuration, env *config.Environment) map[string]ConfigValueWithSource {
	fromEnv := env.AsMap()
	redacted := cfg.Redacted()
	values := make(map[string]ConfigValueWithSource, len(redacted))
	for key, value := range redacted {
		source := SourceFile
		if _, ok := fromEnv[key]; ok {
			source = SourceEnv
		}
		values[key] = ConfigValueWithSource{Value: value, Source: source}
	}
	return values
}

// writeConfigYAML prints each key as YAML under a "# source" comment, sorted.
func writeConfigYAML(w io.Writer, values map[string]ConfigValueWithSource) error {
	sourceStyle := lipgloss.NewStyle().Foreground(tui.ColorMuted)

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		v := values[key]
		data, err := yaml.Marshal(map[string]any{key: v.Value})
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		_, _ = fmt.Fprintf(w, "%s\n%s", sourceStyle.Render("# "+string(v.Source)), data)
	}
	return nil
}
