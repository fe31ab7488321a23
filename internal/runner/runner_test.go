package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/injecteur/internal/api"
	"github.com/mrz1836/injecteur/internal/clock"
	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/execution"
)

type session struct {
	agg   *execution.Aggregator
	count int
}

func newSession() *session { return &session{agg: execution.NewAggregator()} }

func (s *session) NextStep() int {
	s.count++
	return s.count
}

func (s *session) Record(step domain.StepResult) { s.agg.Record(step) }

func (s *session) Summary() execution.Summary { return s.agg.Finalize() }

func (s *session) Reset() {
	s.agg.Reset()
	s.count = 0
}

func (s *session) steps() []domain.StepResult { return s.agg.Steps() }

type lastReader struct {
	status constants.StepStatus
	err    error
	calls  int
}

func (l *lastReader) LastExecution(context.Context, domain.Identifier) (*api.LastExecution, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return &api.LastExecution{InitialStatus: l.status}, nil
}

func fixedClock() *clock.ManualClock {
	return clock.NewManual(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.Local))
}

func okExecutor(c *clock.ManualClock) Executor {
	return ExecutorFunc(func(_ context.Context, step config.StepSpec) (Outcome, error) {
		c.Advance(500 * time.Millisecond)
		return Outcome{Status: constants.StatusSuccess, URL: step.URL, Comment: step.Name + " OK"}, nil
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("http", NewHTTPExecutor())
	reg.Register("noop", ExecutorFunc(func(context.Context, config.StepSpec) (Outcome, error) { return Outcome{}, nil }))

	e, err := reg.Get("")
	require.NoError(t, err)
	assert.IsType(t, &HTTPExecutor{}, e)

	_, err = reg.Get("navigateur")
	require.ErrorIs(t, err, errors.ErrUnknownExecutor)
	assert.Equal(t, []string{"http", "noop"}, reg.Names())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := config.Configuration{"login_courant": "agent02", "port": 8443}
	got, err := Resolve("https://rh.example.fr:{{config.port}}/login?u={{ config.login_courant }}", cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://rh.example.fr:8443/login?u=agent02", got)

	_, err = Resolve("{{config.absent}}", cfg)
	require.Error(t, err)
}

func TestRunner_AllStepsPass(t *testing.T) {
	t.Parallel()

	c := fixedClock()
	reg := NewRegistry()
	reg.Register("http", okExecutor(c))
	sess := newSession()

	steps := []config.StepSpec{{Name: "Accueil"}, {Name: "Connexion", URL: "https://rh.example.fr/login"}}
	cfg := config.Configuration{config.KeyInitialURL: "https://rh.example.fr/"}

	res, err := New(reg, zerolog.Nop(), WithClock(c)).Run(context.Background(), sess, steps, cfg)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccess, res.Summary.Status)
	assert.False(t, res.Relaunched)

	recorded := sess.steps()
	require.Len(t, recorded, 2)
	assert.Equal(t, 1, recorded[0].Order)
	assert.Equal(t, "https://rh.example.fr/", recorded[0].URL)
	assert.Equal(t, 2, recorded[1].Order)
	assert.Equal(t, "https://rh.example.fr/login", recorded[1].URL)
	assert.Equal(t, "0.500", recorded[1].Duration.String())
}

func TestRunner_NoSteps(t *testing.T) {
	t.Parallel()

	sess := newSession()
	res, err := New(NewRegistry(), zerolog.Nop()).Run(context.Background(), sess, nil, config.Configuration{})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusUnknown, res.Summary.Status)
	assert.Empty(t, sess.steps())
	assert.False(t, res.Relaunched)
}

func TestRunner_FailureStopsTheRun(t *testing.T) {
	t.Parallel()

	c := fixedClock()
	reg := NewRegistry()
	reg.Register("http", okExecutor(c))
	reg.Register("echec", ExecutorFunc(func(_ context.Context, step config.StepSpec) (Outcome, error) {
		return Outcome{URL: step.URL}, errors.ErrStepAssertion
	}))
	sess := newSession()

	steps := []config.StepSpec{
		{Name: "Accueil", URL: "https://rh.example.fr/"},
		{Name: "Menu", Type: "echec", URL: "https://rh.example.fr/menu"},
		{Name: "Jamais"},
	}
	res, err := New(reg, zerolog.Nop(), WithClock(c)).Run(context.Background(), sess, steps, config.Configuration{})
	require.ErrorIs(t, err, errors.ErrScenarioFailed)
	assert.Equal(t, constants.StatusFailure, res.Summary.Status)

	recorded := sess.steps()
	require.Len(t, recorded, 2)
	assert.Equal(t, "KO - Etape 2 Menu : step assertion failed", recorded[1].Comment)
	assert.Equal(t, "https://rh.example.fr/menu", recorded[1].URL)
}

func TestRunner_UnknownExecutorFailsTheStep(t *testing.T) {
	t.Parallel()

	sess := newSession()
	_, err := New(NewRegistry(), zerolog.Nop()).Run(context.Background(), sess, []config.StepSpec{{Name: "Bureau", Type: "vnc"}}, config.Configuration{})
	require.ErrorIs(t, err, errors.ErrScenarioFailed)
	require.Len(t, sess.steps(), 1)
	assert.Equal(t, constants.StatusFailure, sess.steps()[0].Status)
}

func TestRunner_PanicFailsTheStep(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("http", ExecutorFunc(func(context.Context, config.StepSpec) (Outcome, error) {
		panic("boom")
	}))
	sess := newSession()
	_, err := New(reg, zerolog.Nop()).Run(context.Background(), sess, []config.StepSpec{{Name: "Accueil"}}, config.Configuration{})
	require.ErrorIs(t, err, errors.ErrScenarioFailed)
	assert.Contains(t, sess.steps()[0].Comment, "panicked: boom")
}

func TestRunner_Interrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	reg := NewRegistry()
	reg.Register("http", ExecutorFunc(func(context.Context, config.StepSpec) (Outcome, error) {
		cancel()
		return Outcome{Status: constants.StatusSuccess}, nil
	}))
	sess := newSession()

	res, err := New(reg, zerolog.Nop()).Run(ctx, sess, []config.StepSpec{{Name: "Accueil"}, {Name: "Menu"}}, config.Configuration{})
	require.ErrorIs(t, err, errors.ErrScenarioFailed)
	assert.True(t, res.Interrupted)

	recorded := sess.steps()
	require.Len(t, recorded, 2)
	assert.Equal(t, constants.StatusUnknown, recorded[1].Status)
	assert.Equal(t, InterruptedComment, recorded[1].Comment)
}

func flakyRegistry(c *clock.ManualClock) *Registry {
	var calls atomic.Int32
	reg := NewRegistry()
	reg.Register("http", ExecutorFunc(func(_ context.Context, step config.StepSpec) (Outcome, error) {
		c.Advance(time.Second)
		if calls.Add(1) == 1 {
			return Outcome{}, errors.ErrStepAssertion
		}
		return Outcome{Status: constants.StatusSuccess, Comment: step.Name + " OK"}, nil
	}))
	return reg
}

func TestRunner_Relance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reader     *lastReader
		relaunched bool
	}{
		{name: "previous run green", reader: &lastReader{status: constants.StatusWarning}, relaunched: true},
		{name: "previous run red", reader: &lastReader{status: constants.StatusFailure}, relaunched: false},
		{name: "lookup failure", reader: &lastReader{err: errors.ErrAPIRequest}, relaunched: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := fixedClock()
			sess := newSession()
			r := New(flakyRegistry(c), zerolog.Nop(), WithClock(c), WithRelance(tc.reader, "1042"))

			res, err := r.Run(context.Background(), sess, []config.StepSpec{{Name: "Accueil"}}, config.Configuration{})
			assert.Equal(t, 1, tc.reader.calls)
			assert.Equal(t, tc.relaunched, res.Relaunched)
			assert.Equal(t, constants.StatusFailure, res.Initial.Status)
			if tc.relaunched {
				require.NoError(t, err)
				assert.Equal(t, constants.StatusSuccess, res.Summary.Status)
				require.Len(t, sess.steps(), 1)
				assert.Equal(t, 1, sess.steps()[0].Order)
			} else {
				require.ErrorIs(t, err, errors.ErrScenarioFailed)
			}
		})
	}
}

func TestHTTPExecutor(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte("Bienvenue agent02"))
		case "/panne":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("<title>503 Service Unavailable</title>"))
		case "/lent":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("ok"))
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name       string
		step       config.StepSpec
		wantErr    bool
		wantStatus constants.StepStatus
		errText    string
	}{
		{
			name:       "post with content check",
			step:       config.StepSpec{Name: "Connexion", URL: srv.URL + "/login", Method: "post", Body: `{"u":"agent02"}`, Contains: "Bienvenue"},
			wantStatus: constants.StatusSuccess,
		},
		{
			name:    "unexpected status",
			step:    config.StepSpec{Name: "Panne", URL: srv.URL + "/panne"},
			wantErr: true,
			errText: "statut HTTP 503 au lieu de 2xx",
		},
		{
			name:       "explicit expected status",
			step:       config.StepSpec{Name: "Panne", URL: srv.URL + "/panne", ExpectedStatus: 503},
			wantStatus: constants.StatusSuccess,
		},
		{
			name:    "missing text",
			step:    config.StepSpec{Name: "Accueil", URL: srv.URL + "/", Contains: "Bienvenue"},
			wantErr: true,
			errText: "absent de la réponse",
		},
		{
			name:    "timeout",
			step:    config.StepSpec{Name: "Lent", URL: srv.URL + "/lent", Timeout: 20 * time.Millisecond},
			wantErr: true,
			errText: "Timeout 20ms exceeded",
		},
		{
			name:       "slow response warns",
			step:       config.StepSpec{Name: "Lent", URL: srv.URL + "/lent", WarnAfter: 50 * time.Millisecond},
			wantStatus: constants.StatusWarning,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out, err := NewHTTPExecutor().Execute(context.Background(), tc.step)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, out.Status)
			assert.True(t, strings.HasPrefix(out.URL, srv.URL))
		})
	}
}

func TestHTTPExecutor_PageIsTheResponseBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("passerelle en erreur"))
	}))
	t.Cleanup(srv.Close)

	out, err := NewHTTPExecutor().Execute(context.Background(), config.StepSpec{Name: "Accueil", URL: srv.URL})
	require.ErrorIs(t, err, errors.ErrStepAssertion)
	require.NotNil(t, out.Page)
	content, err := out.Page.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "passerelle en erreur", content)
}

func TestHTTPExecutor_WarnAfterUsesClock(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	c := fixedClock()
	calls := 0
	now := func() time.Time {
		calls++
		if calls > 1 {
			c.Advance(3 * time.Second)
		}
		return c.Now()
	}
	out, err := NewHTTPExecutor(withNow(now)).Execute(context.Background(),
		config.StepSpec{Name: "Accueil", URL: srv.URL, WarnAfter: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusWarning, out.Status)
	assert.Equal(t, "Accueil lent : 3.000s au-delà du seuil de 2.000s", out.Comment)
}
