package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
)

// ScenarioConfigPath returns {scenarios_path}/config/scenarios/{name}.conf.
func ScenarioConfigPath(scenariosPath, name string) string {
	return filepath.Join(scenariosPath, constants.ConfigDir, constants.ScenarioConfigDir, name+constants.ConfigExtension)
}

// CommonConfigPath returns {scenarios_path}/config/commun/{ref}.conf.
func CommonConfigPath(scenariosPath, ref string) string {
	return filepath.Join(scenariosPath, constants.ConfigDir, constants.CommonConfigDir, ref+constants.ConfigExtension)
}

// CredentialsPath returns {path_utilisateurs_isac}/{user}.conf.
func CredentialsPath(usersPath, user string) string {
	return filepath.Join(usersPath, user+constants.ConfigExtension)
}

// LoadYAMLFile reads a YAML document whose root must be a mapping.
// An empty document yields an empty map.
//
// A missing file wraps ErrConfigNotFound, an unreadable one ErrConfigUnreadable,
// and invalid YAML or a non-mapping root ErrConfigMalformed.
func LoadYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is built from the scenarios tree
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConfigUnreadable, path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConfigMalformed, path, err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: root is %T, want a mapping", errors.ErrConfigMalformed, path, doc)
	}
	return root, nil
}
