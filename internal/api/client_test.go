package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop(), opts...)
}

func TestNewClient_TrailingSlash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://api.local/", NewClient("http://api.local", zerolog.Nop()).BaseURL())
	assert.Equal(t, "http://api.local/", NewClient("http://api.local/", zerolog.Nop()).BaseURL())
}

func TestClient_GetScenario(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/injapi/scenario/1042", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"application": {"nom": "RH"},
			"nom": "Portail RH",
			"flag_ferie": true,
			"planning": [{"jour": 1, "heure_debut": "07:00:00", "heure_fin": "12:00:00"}]
		}`)
	})

	meta, err := c.GetScenario(context.Background(), "1042")
	require.NoError(t, err)
	assert.Equal(t, "RH", meta.ApplicationName())
	assert.Equal(t, "Portail RH", meta.ScenarioName())
	assert.True(t, meta.HolidayExecutionAllowed())
	require.Len(t, meta.Planning, 1)
	assert.Equal(t, domain.PlanningEntry{Day: 1, Start: "07:00:00", End: "12:00:00"}, meta.Planning[0])
}

func TestClient_GetScenario_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, body: "absent", wantErr: errors.ErrAPIRequest},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: errors.ErrAPIRequest},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: errors.ErrAPIRequest},
		{name: "null body", status: http.StatusOK, body: "null", wantErr: errors.ErrAPIRequest},
		{name: "empty object", status: http.StatusOK, body: " { } ", wantErr: errors.ErrAPIRequest},
		{name: "invalid json", status: http.StatusOK, body: "{nom:", wantErr: errors.ErrAPIResponse},
		{name: "wrong type", status: http.StatusOK, body: `{"planning": "lundi"}`, wantErr: errors.ErrAPIResponse},
		{name: "weekday out of range", status: http.StatusOK, body: `{"planning": [{"jour": 8}]}`, wantErr: errors.ErrAPIResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.GetScenario(context.Background(), "7")
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClient_GetScenario_MissingIdentifier(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	_, err := c.GetScenario(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrMissingIdentifier)
	assert.Zero(t, hits.Load())
}

func TestClient_GetScenario_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"nom": "late"}`)
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.GetScenario(context.Background(), "1")
	require.ErrorIs(t, err, errors.ErrAPIRequest)
}

func TestClient_GetScenario_IgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"nom": "ok"}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	meta, err := c.GetScenario(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "ok", meta.Name)
}

func TestClient_SubmitExecution(t *testing.T) {
	t.Parallel()

	report := &domain.ExecutionReport{
		Identifier: "1042",
		Scenario:   "portail_rh",
		Status:     constants.StatusSuccess,
		StepCount:  1,
		Steps:      []domain.StepResult{{Name: "Accueil", Order: 1, Status: constants.StatusSuccess}},
	}

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "created", status: http.StatusCreated},
		{name: "ok is accepted", status: http.StatusOK},
		{name: "bad request", status: http.StatusBadRequest, wantErr: true},
		{name: "server error", status: http.StatusBadGateway, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/injapi/scenario/execution", r.URL.Path)
				assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
				assert.Equal(t, "text/plain", r.Header.Get("Accept"))

				var got map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				assert.InDelta(t, 1042, got["identifiant"], 0)
				assert.InDelta(t, 1, got["nb_scene"], 0)

				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, "done")
			})

			err := c.SubmitExecution(context.Background(), report)
			if tc.wantErr {
				require.ErrorIs(t, err, errors.ErrAPIRequest)
				assert.Contains(t, err.Error(), "done")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClient_SubmitExecution_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	err := NewClient(base, zerolog.Nop()).SubmitExecution(context.Background(), &domain.ExecutionReport{Identifier: "1"})
	require.ErrorIs(t, err, errors.ErrAPIRequest)
}

func TestClient_LastExecution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    constants.StepStatus
		wantErr error
	}{
		{name: "status_initial", body: `{"execution": {"status_initial": 1}}`, want: constants.StatusWarning},
		{name: "legacy spelling", body: `{"execution": {"status_inital": 2}}`, want: constants.StatusFailure},
		{name: "no execution", body: `{"autre": 1}`, wantErr: errors.ErrAPIResponse},
		{name: "no status", body: `{"execution": {"date": "x"}}`, wantErr: errors.ErrAPIResponse},
		{name: "empty", body: `{}`, wantErr: errors.ErrAPIRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/injapi/last_execution/5", r.URL.Path)
				_, _ = io.WriteString(w, tc.body)
			})

			last, err := c.LastExecution(context.Background(), "5")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, last.InitialStatus)
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", preview([]byte("  ok\n")))

	// "é" is two bytes; the limit falls inside the last one.
	body := strings.Repeat("a", bodyPreviewSize-1) + "éé"
	got := preview([]byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", bodyPreviewSize-1)+"...", got)
}
