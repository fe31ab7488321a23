// Package config resolves everything a scenario run needs to know before its
// first step: the process environment (read once through viper) and the
// merged scenario configuration built from YAML files, platform variants,
// environment overrides and decrypted ISAC credentials.
//
// Import rules:
//   - CAN import: internal/constants, internal/crypto, internal/domain,
//     internal/errors, internal/logging, std lib
//   - MUST NOT import: internal/lifecycle, internal/cli
package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
)

// Keys of the environment settings. They double as the configuration keys
// the environment overrides.
const (
	KeyScenario      = "nom_scenario"
	KeyScenarioType  = "type_scenario"
	KeyPlatform      = "plateforme"
	KeyBrowser       = "navigateur"
	KeyHeadless      = "headless"
	KeyLecture       = "lecture"
	KeyInscription   = "inscription"
	KeyRelance       = "relance"
	KeyProxy         = "proxy"
	KeySimuPath      = "simu_path"
	KeyScenariosPath = "scenarios_path"
	KeyOutputPath    = "output_path"
	KeyBrowsersPath  = "playwright_browsers_path"
	KeyUsersPath     = "path_utilisateurs_isac"
	KeyAPIBaseURL    = "url_base_api_injecteur"
	KeyVMName        = "nom_vm_windows"
)

//nolint:gochecknoglobals // Fixed vocabulary of the boolean environment variables
var (
	truthyValues = []string{"true", "1", "yes", "on"}
	falsyValues  = []string{"false", "0", "no", "off"}
)

// Environment is the validated, typed view of the process environment.
// It is built once by LoadEnvironment and never modified afterwards.
type Environment struct {
	Scenario      string
	Type          constants.ScenarioType
	Platform      constants.Platform
	Browser       constants.Browser
	Headless      bool
	Lecture       bool
	Inscription   bool
	Relance       bool
	Proxy         string
	SimuPath      string
	ScenariosPath string
	OutputPath    string
	BrowsersPath  string
	UsersPath     string
	APIBaseURL    string
	VMName        string
}

// newViperInstance creates a viper instance bound to the scenario environment
// variables, with the documented defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnvironment(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyScenarioType, string(constants.ScenarioTypeWeb))
	v.SetDefault(KeyPlatform, string(constants.PlatformProd))
	v.SetDefault(KeyBrowser, string(constants.BrowserFirefox))
	v.SetDefault(KeyHeadless, "true")
	v.SetDefault(KeyLecture, "true")
	v.SetDefault(KeyInscription, "true")
	v.SetDefault(KeyRelance, "false")
	v.SetDefault(KeySimuPath, constants.DefaultSimuPath)
	v.SetDefault(KeyScenariosPath, constants.DefaultScenariosPath)
	v.SetDefault(KeyOutputPath, constants.DefaultOutputPath)
	v.SetDefault(KeyBrowsersPath, constants.DefaultBrowsersPath)
	v.SetDefault(KeyUsersPath, constants.DefaultUsersPath)
	v.SetDefault(KeyAPIBaseURL, constants.DefaultAPIBaseURL)
}

// bindEnvironment maps each setting to its environment variable. SCENARIO
// takes precedence over its NOM_SCENARIO alias.
func bindEnvironment(v *viper.Viper) {
	bindings := map[string][]string{
		KeyScenario:      {constants.EnvScenario, constants.EnvScenarioAlias},
		KeyScenarioType:  {constants.EnvScenarioType},
		KeyPlatform:      {constants.EnvPlatform},
		KeyBrowser:       {constants.EnvBrowser},
		KeyHeadless:      {constants.EnvHeadless},
		KeyLecture:       {constants.EnvLecture},
		KeyInscription:   {constants.EnvInscription},
		KeyRelance:       {constants.EnvRelance},
		KeyProxy:         {constants.EnvProxy},
		KeySimuPath:      {constants.EnvSimuPath},
		KeyScenariosPath: {constants.EnvScenariosPath},
		KeyOutputPath:    {constants.EnvOutputPath},
		KeyBrowsersPath:  {constants.EnvBrowsersPath},
		KeyUsersPath:     {constants.EnvUsersPath},
		KeyAPIBaseURL:    {constants.EnvAPIBaseURL},
		KeyVMName:        {constants.EnvVMName},
	}
	for key, envs := range bindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
}

// LoadEnvironment reads and validates the scenario environment variables.
//
// Missing or invalid values wrap ErrMissingEnvVar or ErrInvalidEnvValue;
// a scenarios directory that cannot be read wraps ErrPathInaccessible.
func LoadEnvironment(ctx context.Context) (*Environment, error) {
	env, err := environmentFrom(newViperInstance())
	if err != nil {
		return nil, err
	}
	if err := env.checkPaths(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("scenario", env.Scenario).
		Str("type", string(env.Type)).
		Str("platform", string(env.Platform)).
		Bool("lecture", env.Lecture).
		Bool("inscription", env.Inscription).
		Msg("environment loaded")

	return env, nil
}

func environmentFrom(v *viper.Viper) (*Environment, error) {
	env := &Environment{
		Scenario:      strings.TrimSpace(v.GetString(KeyScenario)),
		Proxy:         strings.TrimSpace(v.GetString(KeyProxy)),
		SimuPath:      v.GetString(KeySimuPath),
		ScenariosPath: v.GetString(KeyScenariosPath),
		OutputPath:    v.GetString(KeyOutputPath),
		BrowsersPath:  v.GetString(KeyBrowsersPath),
		UsersPath:     v.GetString(KeyUsersPath),
		APIBaseURL:    v.GetString(KeyAPIBaseURL),
		VMName:        strings.TrimSpace(v.GetString(KeyVMName)),
	}

	if env.Scenario == "" {
		return nil, fmt.Errorf("%w: %s (or %s)", errors.ErrMissingEnvVar, constants.EnvScenario, constants.EnvScenarioAlias)
	}

	scenarioType, err := parseEnum(v, KeyScenarioType, constants.EnvScenarioType, constants.ScenarioTypes())
	if err != nil {
		return nil, err
	}
	env.Type = scenarioType

	platform, err := parseEnum(v, KeyPlatform, constants.EnvPlatform, constants.Platforms())
	if err != nil {
		return nil, err
	}
	env.Platform = platform

	browser, err := parseEnum(v, KeyBrowser, constants.EnvBrowser, constants.Browsers())
	if err != nil {
		return nil, err
	}
	env.Browser = browser

	if env.Headless, err = ParseBool(v.GetString(KeyHeadless), constants.EnvHeadless); err != nil {
		return nil, err
	}
	if env.Lecture, err = ParseBool(v.GetString(KeyLecture), constants.EnvLecture); err != nil {
		return nil, err
	}
	inscription, err := ParseBool(v.GetString(KeyInscription), constants.EnvInscription)
	if err != nil {
		return nil, err
	}
	// Results can only be written when they can be correlated with a scenario read from the API.
	env.Inscription = env.Lecture && inscription
	if env.Relance, err = ParseBool(v.GetString(KeyRelance), constants.EnvRelance); err != nil {
		return nil, err
	}

	if env.Type == constants.ScenarioTypeExadata && env.VMName == "" {
		return nil, fmt.Errorf("%w: %s is required for exadata scenarios", errors.ErrMissingEnvVar, constants.EnvVMName)
	}
	if env.Type != constants.ScenarioTypeExadata {
		env.VMName = ""
	}

	return env, nil
}

// ParseBool converts an environment boolean. Only true/1/yes/on and
// false/0/no/off are accepted, case-insensitively.
func ParseBool(raw, name string) (bool, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case slices.Contains(truthyValues, value):
		return true, nil
	case slices.Contains(falsyValues, value):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s=%q (accepted: %s)", errors.ErrInvalidEnvValue, name, raw,
			strings.Join(append(slices.Clone(truthyValues), falsyValues...), ", "))
	}
}

func parseEnum[T ~string](v *viper.Viper, key, name string, accepted []T) (T, error) {
	value := T(strings.ToLower(strings.TrimSpace(v.GetString(key))))
	if slices.Contains(accepted, value) {
		return value, nil
	}
	names := make([]string, len(accepted))
	for i, a := range accepted {
		names[i] = string(a)
	}
	return "", fmt.Errorf("%w: %s=%q (accepted: %s)", errors.ErrInvalidEnvValue, name, v.GetString(key), strings.Join(names, ", "))
}

// checkPaths verifies that the scenarios tree is a readable directory.
func (e *Environment) checkPaths() error {
	info, err := os.Stat(e.ScenariosPath)
	if err != nil {
		return fmt.Errorf("%w: %s=%s: %w", errors.ErrPathInaccessible, constants.EnvScenariosPath, e.ScenariosPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s=%s is not a directory", errors.ErrPathInaccessible, constants.EnvScenariosPath, e.ScenariosPath)
	}
	return nil
}

// IsExadata reports whether the scenario drives the remote desktop.
func (e *Environment) IsExadata() bool {
	return e.Type == constants.ScenarioTypeExadata
}

// AsMap returns the environment as configuration keys. The result is a fresh
// map on every call; nom_vm_windows is only present for exadata scenarios.
func (e *Environment) AsMap() map[string]any {
	m := map[string]any{
		KeyScenario:      e.Scenario,
		KeyScenarioType:  string(e.Type),
		KeyPlatform:      string(e.Platform),
		KeyBrowser:       string(e.Browser),
		KeyHeadless:      e.Headless,
		KeyLecture:       e.Lecture,
		KeyInscription:   e.Inscription,
		KeyRelance:       e.Relance,
		KeyProxy:         e.Proxy,
		KeySimuPath:      e.SimuPath,
		KeyScenariosPath: e.ScenariosPath,
		KeyOutputPath:    e.OutputPath,
		KeyBrowsersPath:  e.BrowsersPath,
		KeyUsersPath:     e.UsersPath,
		KeyAPIBaseURL:    e.APIBaseURL,
	}
	if e.IsExadata() {
		m[KeyVMName] = e.VMName
	}
	return m
}
