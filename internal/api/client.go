// Package api is the client of the injector API (injapi): scenario
// metadata, execution results and the last execution of a scenario.
//
// Every call is synchronous, bounded by constants.APITimeout, never
// retried, and detached from the caller's cancellation so an interrupt
// cannot cut a result submission in half.
//
// Import rules:
//   - CAN import: internal/constants, internal/ctxutil, internal/domain,
//     internal/errors, std lib
//   - MUST NOT import: internal/config, internal/lifecycle, internal/cli
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/ctxutil"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

// API routes, relative to the base URL.
const (
	routeScenario      = "injapi/scenario/"
	routeExecution     = "injapi/scenario/execution"
	routeLastExecution = "injapi/last_execution/"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// bodyPreviewSize caps how much of a response body goes into errors and logs.
const bodyPreviewSize = 512

// Client talks to the injector API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the API rooted at baseURL.
// A missing trailing slash is added.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL: baseURL,
		timeout: constants.APITimeout,
		logger:  logger.With().Str("component", "api").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the API root, always ending with a slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetScenario fetches the metadata of scenario id.
//
// Transport failures, non-2xx statuses and empty bodies wrap
// errors.ErrAPIRequest. A body that arrived but cannot be decoded, or whose
// planning is out of shape, wraps errors.ErrAPIResponse.
func (c *Client) GetScenario(ctx context.Context, id domain.Identifier) (*domain.ScenarioMetadata, error) {
	if id.IsZero() {
		return nil, errors.ErrMissingIdentifier
	}
	body, err := c.get(ctx, routeScenario+url.PathEscape(id.String()))
	if err != nil {
		return nil, err
	}

	var meta domain.ScenarioMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("%w: scenario %s: %w", errors.ErrAPIResponse, id, err)
	}
	for i, entry := range meta.Planning {
		if entry.Day < 1 || entry.Day > 7 {
			return nil, fmt.Errorf("%w: scenario %s: planning[%d].jour=%d is not an ISO weekday", errors.ErrAPIResponse, id, i, entry.Day)
		}
	}

	c.logger.Info().
		Str("identifiant", id.String()).
		Str("application", meta.Application.Name).
		Str("scenario", meta.Name).
		Int("windows", len(meta.Planning)).
		Msg("scenario metadata loaded")
	return &meta, nil
}

// LastExecution is the outcome of the previous run of a scenario.
type LastExecution struct {
	InitialStatus constants.StepStatus
}

// lastExecutionPayload accepts both spellings served by the API.
type lastExecutionPayload struct {
	Execution *struct {
		StatusInitial *int `json:"status_initial"`
		StatusInital  *int `json:"status_inital"`
	} `json:"execution"`
}

// LastExecution fetches the previous execution of scenario id.
func (c *Client) LastExecution(ctx context.Context, id domain.Identifier) (*LastExecution, error) {
	if id.IsZero() {
		return nil, errors.ErrMissingIdentifier
	}
	body, err := c.get(ctx, routeLastExecution+url.PathEscape(id.String()))
	if err != nil {
		return nil, err
	}

	var payload lastExecutionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: last execution of %s: %w", errors.ErrAPIResponse, id, err)
	}
	if payload.Execution == nil {
		return nil, fmt.Errorf("%w: last execution of %s: no execution object", errors.ErrAPIResponse, id)
	}
	status := payload.Execution.StatusInitial
	if status == nil {
		status = payload.Execution.StatusInital
	}
	if status == nil {
		return nil, fmt.Errorf("%w: last execution of %s: no status_initial", errors.ErrAPIResponse, id)
	}

	c.logger.Info().Str("identifiant", id.String()).Int("status_initial", *status).Msg("last execution loaded")
	return &LastExecution{InitialStatus: constants.StepStatus(*status)}, nil
}

// SubmitExecution posts an execution report. The API answers 201 Created;
// any other 2xx is accepted with a warning.
func (c *Client) SubmitExecution(ctx context.Context, report *domain.ExecutionReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to encode execution report")
	}

	ctx, cancel := ctxutil.Detached(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + routeExecution
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrAPIRequest, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "text/plain")

	c.logger.Info().Str("url", endpoint).Str("identifiant", report.Identifier.String()).Msg("submitting execution result")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", errors.ErrAPIRequest, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	log := c.logger.With().Int("status", resp.StatusCode).Int64("duration_ms", time.Since(start).Milliseconds()).Logger()
	switch {
	case resp.StatusCode == http.StatusCreated:
		log.Info().Str("response", preview(body)).Msg("execution result recorded")
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		log.Warn().Str("response", preview(body)).Msg("execution result accepted without 201 Created")
		return nil
	default:
		return fmt.Errorf("%w: POST %s: HTTP %d: %s", errors.ErrAPIRequest, endpoint, resp.StatusCode, preview(body))
	}
}

// get performs a GET on route and returns a non-empty body.
func (c *Client) get(ctx context.Context, route string) ([]byte, error) {
	ctx, cancel := ctxutil.Detached(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + route
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrAPIRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", endpoint).Msg("api request")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", errors.ErrAPIRequest, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: reading body: %w", errors.ErrAPIRequest, endpoint, err)
	}
	c.logger.Debug().
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d: %s", errors.ErrAPIRequest, endpoint, resp.StatusCode, preview(body))
	}
	if isEmptyJSON(body) {
		return nil, fmt.Errorf("%w: GET %s: no data returned", errors.ErrAPIRequest, endpoint)
	}
	return body, nil
}

// isEmptyJSON reports whether body carries no data: nothing, null, {} or [].
func isEmptyJSON(body []byte) bool {
	switch string(bytes.Join(bytes.Fields(body), nil)) {
	case "", "null", "{}", "[]":
		return true
	default:
		return false
	}
}

// preview returns at most bodyPreviewSize bytes of body, cut on a rune boundary.
func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= bodyPreviewSize {
		return s
	}
	cut := bodyPreviewSize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
