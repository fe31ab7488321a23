package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fake secrets are built at runtime so secret scanners stay quiet.
func fakePassword() string { return "testonly" + "Passw0rd" }
func fakeAESKey() string   { return "dGVzdG9ubHk" + "ta2V5MTIzNDU2Nzg=" }

func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{
			name:     "french password key",
			input:    "mot_de_passe: " + fakePassword(),
			contains: "mot_de_passe: " + RedactedValue,
			absent:   fakePassword(),
		},
		{
			name:     "json password",
			input:    `{"password":"` + fakePassword() + `","user":"bob"}`,
			contains: `"user":"bob"`,
			absent:   fakePassword(),
		},
		{
			name:     "aes key",
			input:    "key_aes=" + fakeAESKey(),
			contains: "key_aes=" + RedactedValue,
			absent:   fakeAESKey(),
		},
		{
			name:     "proxy with credentials",
			input:    "proxy http://alice:" + fakePassword() + "@proxy.local:3128",
			contains: "http://alice:" + RedactedValue + "@proxy.local:3128",
			absent:   fakePassword(),
		},
		{
			name:     "bearer token",
			input:    "Authorization: Bearer abcdefghijklmnop",
			contains: "Bearer " + RedactedValue,
			absent:   "abcdefghijklmnop",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := FilterSensitiveValue(tc.input)
			assert.Contains(t, out, tc.contains)
			assert.NotContains(t, out, tc.absent)
			assert.True(t, ContainsSensitiveData(tc.input))
		})
	}
}

func TestFilterSensitiveValue_PlainText(t *testing.T) {
	t.Parallel()

	msg := "KO - Etape 2 Connexion : Attente élément : dépassé"
	assert.Equal(t, msg, FilterSensitiveValue(msg))
	assert.False(t, ContainsSensitiveData(msg))
}

func TestIsSensitiveFieldName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"mot_de_passe", "MDP", "password_isac", "key_aes", "api_token"} {
		assert.True(t, IsSensitiveFieldName(name), name)
	}
	for _, name := range []string{"identifiant", "nom_scenario", "url_initiale", "login"} {
		assert.False(t, IsSensitiveFieldName(name), name)
	}
}

func TestSafeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("mot_de_passe", "anything"))
	assert.Equal(t, "http://proxy:3128", SafeValue("proxy", "http://proxy:3128"))
}

func TestRedactMap(t *testing.T) {
	t.Parallel()

	m := map[string]any{
		"identifiant":  42,
		"login":        "alice",
		"mot_de_passe": fakePassword(),
		"proxy":        "http://alice:" + fakePassword() + "@proxy:3128",
		"nested": map[string]any{
			"secret_code": 1234,
			"url":         "https://portal",
		},
		"liste": []any{"mdp=" + fakePassword(), "ok"},
	}

	out := RedactMap(m)

	assert.Equal(t, 42, out["identifiant"])
	assert.Equal(t, "alice", out["login"])
	assert.Equal(t, RedactedValue, out["mot_de_passe"])
	assert.NotContains(t, out["proxy"], fakePassword())

	nested, ok := out["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, RedactedValue, nested["secret_code"])
	assert.Equal(t, "https://portal", nested["url"])

	list, ok := out["liste"].([]any)
	require.True(t, ok)
	assert.NotContains(t, list[0], fakePassword())
	assert.Equal(t, "ok", list[1])
}

func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw := NewFilteringWriter(&buf)

	line := []byte(`{"level":"info","event":"creds","mot_de_passe":"` + fakePassword() + `"}` + "\n")
	n, err := fw.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.NotContains(t, buf.String(), fakePassword())
	assert.Contains(t, buf.String(), RedactedValue)
}

func TestSensitiveDataHook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("password=" + fakePassword())
	assert.Contains(t, buf.String(), `"contains_filtered_data":true`)

	buf.Reset()
	logger.Info().Msg("scenario started")
	assert.NotContains(t, buf.String(), "contains_filtered_data")
}
