package runner

import (
	"fmt"
	"regexp"

	"github.com/mrz1836/injecteur/internal/config"
)

//nolint:gochecknoglobals // compiled once
var configRefRe = regexp.MustCompile(`\{\{\s*config\.([^}\s]+)\s*\}\}`)

// Resolve replaces every {{config.key}} in s with the configuration value.
// An unknown key is an error so that a typo never reaches the target.
func Resolve(s string, cfg config.Configuration) (string, error) {
	var resolveErr error
	out := configRefRe.ReplaceAllStringFunc(s, func(match string) string {
		key := configRefRe.FindStringSubmatch(match)[1]
		if _, ok := cfg[key]; !ok {
			resolveErr = fmt.Errorf("unresolved configuration reference %q", key)
			return match
		}
		return cfg.String(key)
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// resolveStep returns a copy of step with its templated fields resolved.
// An empty URL falls back to url_initiale.
func resolveStep(step config.StepSpec, cfg config.Configuration) (config.StepSpec, error) {
	var err error
	if step.URL == "" {
		step.URL = cfg.String(config.KeyInitialURL)
	}
	if step.URL, err = Resolve(step.URL, cfg); err != nil {
		return step, fmt.Errorf("url: %w", err)
	}
	if step.Body, err = Resolve(step.Body, cfg); err != nil {
		return step, fmt.Errorf("corps: %w", err)
	}
	if step.Contains, err = Resolve(step.Contains, cfg); err != nil {
		return step, fmt.Errorf("contient: %w", err)
	}
	if len(step.Headers) > 0 {
		headers := make(map[string]string, len(step.Headers))
		for k, v := range step.Headers {
			if headers[k], err = Resolve(v, cfg); err != nil {
				return step, fmt.Errorf("entetes.%s: %w", k, err)
			}
		}
		step.Headers = headers
	}
	return step, nil
}
