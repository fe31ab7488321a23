package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrz1836/injecteur/internal/config"
	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/diagnose"
	"github.com/mrz1836/injecteur/internal/errors"
)

// maxBodySize bounds the response body kept for assertions and diagnosis.
const maxBodySize = 4 << 20

// HTTPExecutor runs "http" steps: one request, then status and content checks.
type HTTPExecutor struct {
	client *http.Client
	now    func() time.Time
}

// HTTPOption configures an HTTPExecutor.
type HTTPOption func(*HTTPExecutor)

// WithProxy routes requests through proxy. An empty value keeps the
// environment's proxy settings.
func WithProxy(proxy string) HTTPOption {
	return func(h *HTTPExecutor) {
		if proxy == "" {
			return
		}
		if u, err := url.Parse(proxy); err == nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.Proxy = http.ProxyURL(u)
			h.client.Transport = transport
		}
	}
}

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(h *HTTPExecutor) {
		h.client.Transport = rt
	}
}

// withNow replaces the time source used to measure slow responses.
func withNow(now func() time.Time) HTTPOption {
	return func(h *HTTPExecutor) {
		h.now = now
	}
}

// NewHTTPExecutor creates an HTTP step executor. Per-step timeouts are
// applied through the request context.
func NewHTTPExecutor(opts ...HTTPOption) *HTTPExecutor {
	h := &HTTPExecutor{
		client: &http.Client{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute sends the request described by step. The step fails when the
// request fails, the status differs from statut_attendu (any 2xx when
// unset), or the body lacks contient. A response slower than alerte_apres
// completes with WARNING.
func (h *HTTPExecutor) Execute(ctx context.Context, step config.StepSpec) (Outcome, error) {
	out := Outcome{URL: step.URL}
	if step.URL == "" {
		return out, fmt.Errorf("%w: no url for step %q", errors.ErrStepAssertion, step.Name)
	}

	method := strings.ToUpper(step.Method)
	if method == "" {
		method = http.MethodGet
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultStepTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if step.Body != "" {
		bodyReader = strings.NewReader(step.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, step.URL, bodyReader)
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range step.Headers {
		req.Header.Set(k, v)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := h.now()
	resp, err := h.client.Do(req)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, fmt.Errorf("%s %s: Timeout %dms exceeded", method, step.URL, timeout.Milliseconds())
		}
		return out, fmt.Errorf("%s %s: %w", method, step.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return out, fmt.Errorf("%s %s: failed to read response: %w", method, step.URL, err)
	}
	elapsed := h.now().Sub(start)

	out.URL = resp.Request.URL.String()
	out.Page = diagnose.StaticPage(body)

	if !statusAccepted(resp.StatusCode, step.ExpectedStatus) {
		return out, fmt.Errorf("%w: statut HTTP %d au lieu de %s", errors.ErrStepAssertion, resp.StatusCode, expectedLabel(step.ExpectedStatus))
	}
	if step.Contains != "" && !strings.Contains(string(body), step.Contains) {
		return out, fmt.Errorf("%w: texte %q absent de la réponse", errors.ErrStepAssertion, step.Contains)
	}

	out.Status = constants.StatusSuccess
	out.Comment = fmt.Sprintf("%s OK (HTTP %d)", step.Name, resp.StatusCode)
	if step.WarnAfter > 0 && elapsed > step.WarnAfter {
		out.Status = constants.StatusWarning
		out.Comment = fmt.Sprintf("%s lent : %.3fs au-delà du seuil de %.3fs", step.Name, elapsed.Seconds(), step.WarnAfter.Seconds())
	}
	return out, nil
}

func statusAccepted(code, expected int) bool {
	if expected == 0 {
		return code >= 200 && code < 300
	}
	return code == expected
}

func expectedLabel(expected int) string {
	if expected == 0 {
		return "2xx"
	}
	return fmt.Sprintf("%d", expected)
}
