package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
)

// testViper returns a viper instance with defaults and the given overrides,
// without touching the process environment.
func testViper(overrides map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestEnvironmentFrom_Defaults(t *testing.T) {
	t.Parallel()

	env, err := environmentFrom(testViper(map[string]string{KeyScenario: "portail_rh"}))
	require.NoError(t, err)

	assert.Equal(t, "portail_rh", env.Scenario)
	assert.Equal(t, constants.ScenarioTypeWeb, env.Type)
	assert.Equal(t, constants.PlatformProd, env.Platform)
	assert.Equal(t, constants.BrowserFirefox, env.Browser)
	assert.True(t, env.Headless)
	assert.True(t, env.Lecture)
	assert.True(t, env.Inscription)
	assert.False(t, env.Relance)
	assert.Equal(t, constants.DefaultAPIBaseURL, env.APIBaseURL)
	assert.Empty(t, env.VMName)
}

func TestEnvironmentFrom_MissingScenario(t *testing.T) {
	t.Parallel()

	_, err := environmentFrom(testViper(nil))
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrMissingEnvVar)
	assert.Contains(t, err.Error(), constants.EnvScenario)
}

func TestEnvironmentFrom_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "scenario type", key: KeyScenarioType, val: "desktop"},
		{name: "platform", key: KeyPlatform, val: "recette"},
		{name: "browser", key: KeyBrowser, val: "safari"},
		{name: "headless", key: KeyHeadless, val: "maybe"},
		{name: "lecture", key: KeyLecture, val: "oui"},
		{name: "inscription", key: KeyInscription, val: ""},
		{name: "relance", key: KeyRelance, val: "2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := environmentFrom(testViper(map[string]string{KeyScenario: "s", tc.key: tc.val}))
			require.ErrorIs(t, err, errors.ErrInvalidEnvValue)
		})
	}
}

func TestEnvironmentFrom_EnumsAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	env, err := environmentFrom(testViper(map[string]string{
		KeyScenario:     "s",
		KeyPlatform:     " DEV ",
		KeyBrowser:      "Chromium",
		KeyScenarioType: "TECHNIQUE",
	}))
	require.NoError(t, err)
	assert.Equal(t, constants.PlatformDev, env.Platform)
	assert.Equal(t, constants.BrowserChromium, env.Browser)
	assert.Equal(t, constants.ScenarioTypeTechnique, env.Type)
}

func TestEnvironmentFrom_VMName(t *testing.T) {
	t.Parallel()

	t.Run("required for exadata", func(t *testing.T) {
		t.Parallel()
		_, err := environmentFrom(testViper(map[string]string{KeyScenario: "s", KeyScenarioType: "exadata"}))
		require.ErrorIs(t, err, errors.ErrMissingEnvVar)
		assert.Contains(t, err.Error(), constants.EnvVMName)
	})

	t.Run("present for exadata", func(t *testing.T) {
		t.Parallel()
		env, err := environmentFrom(testViper(map[string]string{
			KeyScenario: "s", KeyScenarioType: "exadata", KeyVMName: "VM-EXA-01",
		}))
		require.NoError(t, err)
		assert.Equal(t, "VM-EXA-01", env.VMName)
		assert.Equal(t, "VM-EXA-01", env.AsMap()[KeyVMName])
	})

	for _, scenarioType := range []string{"web", "technique"} {
		t.Run("optional for "+scenarioType, func(t *testing.T) {
			t.Parallel()
			env, err := environmentFrom(testViper(map[string]string{
				KeyScenario: "s", KeyScenarioType: scenarioType, KeyVMName: "ignored",
			}))
			require.NoError(t, err)
			assert.Empty(t, env.VMName)
			assert.NotContains(t, env.AsMap(), KeyVMName)
		})
	}
}

func TestEnvironmentFrom_InscriptionNeedsLecture(t *testing.T) {
	t.Parallel()

	env, err := environmentFrom(testViper(map[string]string{
		KeyScenario: "s", KeyLecture: "false", KeyInscription: "true",
	}))
	require.NoError(t, err)
	assert.False(t, env.Lecture)
	assert.False(t, env.Inscription)
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"true", "TRUE", "1", "yes", " on "} {
		got, err := ParseBool(raw, "X")
		require.NoError(t, err, raw)
		assert.True(t, got, raw)
	}
	for _, raw := range []string{"false", "0", "No", "off"} {
		got, err := ParseBool(raw, "X")
		require.NoError(t, err, raw)
		assert.False(t, got, raw)
	}
	_, err := ParseBool("vrai", "X")
	require.ErrorIs(t, err, errors.ErrInvalidEnvValue)
}

func TestEnvironment_AsMapReturnsFreshMap(t *testing.T) {
	t.Parallel()

	env := &Environment{Scenario: "s", Platform: constants.PlatformTest}
	first := env.AsMap()
	first[KeyScenario] = "changed"
	assert.Equal(t, "s", env.AsMap()[KeyScenario])
}

// LoadEnvironment reads the real process environment, so these tests cannot run in parallel.
func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()

	t.Run("scenario alias", func(t *testing.T) {
		t.Setenv(constants.EnvScenario, "")
		t.Setenv(constants.EnvScenarioAlias, "alias_scenario")
		t.Setenv(constants.EnvScenariosPath, dir)

		env, err := LoadEnvironment(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "alias_scenario", env.Scenario)
		assert.Equal(t, dir, env.ScenariosPath)
	})

	t.Run("SCENARIO wins over alias", func(t *testing.T) {
		t.Setenv(constants.EnvScenario, "primary")
		t.Setenv(constants.EnvScenarioAlias, "alias_scenario")
		t.Setenv(constants.EnvScenariosPath, dir)
		t.Setenv(constants.EnvPlatform, "test")
		t.Setenv(constants.EnvLecture, "off")

		env, err := LoadEnvironment(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "primary", env.Scenario)
		assert.Equal(t, constants.PlatformTest, env.Platform)
		assert.False(t, env.Lecture)
	})

	t.Run("missing scenarios path", func(t *testing.T) {
		t.Setenv(constants.EnvScenario, "s")
		t.Setenv(constants.EnvScenariosPath, filepath.Join(dir, "absent"))

		_, err := LoadEnvironment(context.Background())
		require.ErrorIs(t, err, errors.ErrPathInaccessible)
		assert.Equal(t, errors.KindInfrastructure, errors.KindOf(err))
	})

	t.Run("scenarios path is a file", func(t *testing.T) {
		file := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		t.Setenv(constants.EnvScenario, "s")
		t.Setenv(constants.EnvScenariosPath, file)

		_, err := LoadEnvironment(context.Background())
		require.ErrorIs(t, err, errors.ErrPathInaccessible)
	})
}
