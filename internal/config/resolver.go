package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/errors"
)

// Resolver builds the scenario configuration from the scenarios tree.
type Resolver struct {
	logger zerolog.Logger
}

// NewResolver creates a Resolver that logs through logger.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger.With().Str("component", "config").Logger()}
}

// Resolve merges, in increasing order of precedence, the common fragment
// named by config_commune, the scenario file, and the environment. Mappings
// keyed by platform are collapsed to the active platform before the
// environment overlay, and credentials for utilisateur_isac are decrypted
// and merged last, without overriding any environment key.
//
// The result depends only on env and the files on disk: two calls with the
// same inputs return equal configurations.
func (r *Resolver) Resolve(ctx context.Context, env *Environment) (Configuration, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: environment not loaded", errors.ErrMissingEnvVar)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scenarioPath := ScenarioConfigPath(env.ScenariosPath, env.Scenario)
	merged, err := LoadYAMLFile(scenarioPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scenario configuration")
	}
	r.logger.Debug().Str("path", scenarioPath).Int("keys", len(merged)).Msg("scenario configuration loaded")

	if ref, ok := merged[KeyCommonRef]; ok && ref != nil {
		name := fmt.Sprint(ref)
		commonPath := CommonConfigPath(env.ScenariosPath, name)
		common, err := LoadYAMLFile(commonPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load common configuration %q", name)
		}
		merged = deepMerge(common, merged)
		r.logger.Debug().Str("path", commonPath).Msg("common configuration merged")
	}

	collapsePlatform(merged, string(env.Platform))
	overlay := env.AsMap()
	merged = deepMerge(merged, overlay)

	if user := Configuration(merged).String(KeyISACUser); user != "" {
		creds, err := loadCredentials(env.UsersPath, user, string(env.Platform))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve credentials for %s", user)
		}
		for k, v := range creds {
			if _, owned := overlay[k]; owned {
				r.logger.Warn().Str("user", user).Str("key", k).Msg("credential field ignored, the environment owns this key")
				continue
			}
			merged[k] = v
		}
		r.logger.Debug().Str("user", user).Int("fields", len(creds)).Msg("credentials merged")
	}

	return Configuration(merged), nil
}
