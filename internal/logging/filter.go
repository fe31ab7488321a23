// Package logging keeps credentials out of injector logs.
//
// ISAC credentials are merged into the scenario configuration at runtime,
// so any log line or console dump that includes configuration values must
// go through this package. FilteringWriter protects the log file,
// RedactMap protects structured dumps of the configuration.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue replaces every sensitive value.
const RedactedValue = "[REDACTED]"

// sensitivePatterns match credentials embedded in free text.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// key=value or key: value for password-like keys, French and English.
	regexp.MustCompile(`(?i)(mot_de_passe|password|passwd|mdp|pwd|secret)(["']?\s*[:=]\s*)["']?[^\s"',}]+["']?`),

	// Sealed credential material.
	regexp.MustCompile(`(?i)(key_aes|iv_base64|data_base64)(["']?\s*[:=]\s*)["']?[A-Za-z0-9+/=]+["']?`),

	// Bearer and Basic authorization values.
	regexp.MustCompile(`(?i)(bearer|basic)\s+[A-Za-z0-9+/=._-]{8,}`),

	// user:password@ in URLs, proxies included.
	regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]+:)[^@/\s]+@`),

	// PEM private keys.
	regexp.MustCompile(`(?i)-----BEGIN[A-Z\s]+PRIVATE KEY-----`),
}

// replacements mirror sensitivePatterns: keep the key, drop the value.
var replacements = []string{ //nolint:gochecknoglobals // Parallel to sensitivePatterns
	"${1}${2}" + RedactedValue,
	"${1}${2}" + RedactedValue,
	"${1} " + RedactedValue,
	"${1}" + RedactedValue + "@",
	RedactedValue,
}

// sensitiveFieldNames are matched as substrings of lower-cased keys.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"mot_de_passe",
	"motdepasse",
	"mdp",
	"password",
	"passwd",
	"secret",
	"token",
	"authorization",
	"key_aes",
	"iv_base64",
	"data_base64",
	"private_key",
	"credential",
}

// SensitiveDataHook flags log events whose message carries a credential.
// Zerolog hooks cannot rewrite the message; FilteringWriter does that on
// the file side.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements zerolog.Hook.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData reports whether s matches any credential pattern.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue redacts every credential pattern found in value.
func FilterSensitiveValue(value string) string {
	result := value
	for i, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, replacements[i])
	}
	return result
}

// IsSensitiveFieldName reports whether a configuration or log key names a credential.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// SafeValue returns value ready for a log field named fieldName.
//
//	logger.Info().Str("proxy", logging.SafeValue("proxy", env.Proxy)).Msg("using proxy")
func SafeValue(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// RedactMap redacts m in place and returns it. Values under sensitive keys
// are replaced whatever their type; other strings are filtered; nested maps
// and lists are walked.
func RedactMap(m map[string]any) map[string]any {
	for k, v := range m {
		if IsSensitiveFieldName(k) {
			m[k] = RedactedValue
			continue
		}
		m[k] = redactValue(v)
	}
	return m
}

func redactValue(v any) any {
	switch t := v.(type) {
	case string:
		return FilterSensitiveValue(t)
	case map[string]any:
		return RedactMap(t)
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}

// FilteringWriter redacts credentials from everything written to w.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success so callers do not
// treat a shortened, redacted line as a short write.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	if _, err = fw.w.Write([]byte(FilterSensitiveValue(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
