package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vietddude/sitewatch/internal/infra/session"
	"github.com/vietddude/sitewatch/internal/metrics"
)

// Config holds client settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client is the transport adapter: every outgoing request gets the current
// credential attached, and every failure goes through classify-and-route
// before the caller sees it. Callers only ever observe *Error, never the raw
// transport error.
type Client struct {
	base    string
	http    *http.Client
	store   session.Store
	router  *Router
	log     *slog.Logger
	refresh singleflight.Group
}

// New creates an API client. store holds the persisted session; router
// dispatches classified failures.
func New(cfg Config, store session.Store, router *Router, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		store:  store,
		router: router,
		log:    log,
	}
}

// Router returns the router this client dispatches failures to.
func (c *Client) Router() *Router {
	return c.router
}

// Do performs a request against the backend. body (if non-nil) is sent as
// JSON; the response body (if out is non-nil) is decoded into out. Any
// failure is returned as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	start := time.Now()
	reqID := uuid.NewString()
	url := c.base + path

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e := c.router.ClassifyAndRoute(ctx, 0, nil, fmt.Errorf("encode request body: %w", err))
			return e
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return c.fail(ctx, method, url, reqID, start, 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Attach the credential if a session exists. Its absence is not an
	// error here; the request is allowed to fail at the peer.
	if s, err := c.store.Load(ctx); err == nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	} else if !errors.Is(err, session.ErrNoSession) {
		c.log.Warn("failed to load session", "error", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, method, url, reqID, start, 0, nil, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return c.fail(ctx, method, url, reqID, start, 0, nil, err)
	}

	if res.StatusCode >= 400 {
		if res.StatusCode == http.StatusUnauthorized && !retried {
			if c.attemptRecovery(ctx) {
				return c.do(ctx, method, path, body, out, true)
			}
		}
		return c.fail(ctx, method, url, reqID, start, res.StatusCode, data, nil)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			e := &Error{
				StatusCode: res.StatusCode,
				Message:    fmt.Sprintf("malformed response body: %v", err),
				Details:    map[string]any{"status": res.StatusCode},
			}
			c.observe(method, e.Kind().String(), start)
			c.log.Warn("api response decode failed",
				"method", method, "url", url, "status", res.StatusCode, "request_id", reqID)
			c.router.Route(ctx, e)
			return e
		}
	}

	c.observe(method, "success", start)
	c.log.Debug("api request",
		"method", method, "url", url, "status", res.StatusCode,
		"request_id", reqID, "duration", time.Since(start))
	return nil
}

// fail classifies and routes a failed request, records observability, and
// returns the uniform error.
func (c *Client) fail(ctx context.Context, method, url, reqID string, start time.Time, status int, body []byte, cause error) *Error {
	e := c.router.ClassifyAndRoute(ctx, status, body, cause)
	c.observe(method, e.Kind().String(), start)
	c.log.Warn("api request failed",
		"method", method, "url", url, "status", e.StatusCode,
		"kind", e.Kind().String(), "request_id", reqID,
		"duration", time.Since(start), "message", e.Message)
	return e
}

func (c *Client) observe(method, result string, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(method, result).Inc()
	metrics.RequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
