package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content at path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ScenarioEnv sets the environment variables of a web scenario named name
// rooted at root, with lecture and inscription disabled. It returns root.
func ScenarioEnv(t testing.TB, root, name string) string {
	t.Helper()
	for key, value := range map[string]string{
		"SCENARIO":       name,
		"TYPE_SCENARIO":  "web",
		"PLATEFORME":     "prod",
		"SCENARIOS_PATH": root,
		"OUTPUT_PATH":    filepath.Join(root, "out"),
		"LECTURE":        "false",
		"INSCRIPTION":    "false",
		"RELANCE":        "false",
	} {
		t.Setenv(key, value)
	}
	return root
}
