package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/logging"
)

// Configuration keys read by the injector itself. Any other key is scenario
// data passed through to the step executors.
const (
	KeyIdentifier      = "identifiant"
	KeyCommonRef       = "config_commune"
	KeyISACUser        = "utilisateur_isac"
	KeyInitialURL      = "url_initiale"
	KeyApplicationName = "nom_application"
	KeyErrorFiles      = "fichiers_erreurs"
	KeyRotation        = "rotation"
	KeySteps           = "etapes"
	KeyExadataImages   = "chemin_images_exadata"
	KeyScreenshotDir   = "screenshot_dir"
	KeyReportDir       = "report_dir"
)

// Configuration is the flat scenario configuration ("ScenarioConfiguration").
type Configuration map[string]any

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	out, _ := cloneValue(map[string]any(c)).(map[string]any)
	return out
}

// String returns the value at key formatted as text, or "" when absent.
func (c Configuration) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value at key when it is a bool, false otherwise.
func (c Configuration) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Identifier returns the scenario identifier, or "" when missing.
func (c Configuration) Identifier() domain.Identifier {
	return domain.IdentifierFrom(c[KeyIdentifier])
}

// Keys returns the configuration keys in sorted order.
func (c Configuration) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Redacted returns a deep copy of c suitable for logs and console output.
func (c Configuration) Redacted() map[string]any {
	return logging.RedactMap(c.Clone())
}

// StepSpec declares one scenario step under the "etapes" key.
type StepSpec struct {
	Name           string            `mapstructure:"nom"`
	Type           string            `mapstructure:"type"`
	URL            string            `mapstructure:"url"`
	Method         string            `mapstructure:"methode"`
	Headers        map[string]string `mapstructure:"entetes"`
	Body           string            `mapstructure:"corps"`
	ExpectedStatus int               `mapstructure:"statut_attendu"`
	Contains       string            `mapstructure:"contient"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	WarnAfter      time.Duration     `mapstructure:"alerte_apres"`
}

// Settings is the typed view of the keys the injector reads from the configuration.
type Settings struct {
	Identifier      domain.Identifier `mapstructure:"identifiant"`
	ScenarioName    string            `mapstructure:"nom_scenario"`
	ApplicationName string            `mapstructure:"nom_application"`
	InitialURL      string            `mapstructure:"url_initiale"`
	ISACUser        string            `mapstructure:"utilisateur_isac"`
	ErrorFiles      []string          `mapstructure:"fichiers_erreurs"`
	Rotation        string            `mapstructure:"rotation"`
	Steps           []StepSpec        `mapstructure:"etapes"`
}

// Settings decodes the typed view of c. Scalars are converted weakly, so a
// numeric identifiant or a single fichiers_erreurs entry decode as expected.
func (c Configuration) Settings() (*Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			identifierHook(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build settings decoder")
	}
	if err := decoder.Decode(map[string]any(c)); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigMalformed, err)
	}
	return &s, nil
}

// identifierHook converts raw YAML scalars into domain.Identifier.
func identifierHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(domain.Identifier(""))
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		return domain.IdentifierFrom(data), nil
	}
}
