package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vietddude/sitewatch/internal/infra/session"
	"github.com/vietddude/sitewatch/internal/metrics"
)

// refreshPath is the dedicated, unauthenticated token exchange endpoint. It
// is deliberately outside the classify-and-route path: a failing refresh
// must not recurse into another recovery attempt.
const refreshPath = "/auth/refresh"

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// attemptRecovery runs the one-shot recovery sequence for an unauthorized
// response: read the refresh credential, exchange it for a new session, and
// report whether the original request may be replayed. Each request goes
// through here at most once; a 401 on the replayed request falls straight
// through to routing (and so to session invalidation).
//
// Concurrent 401 bursts share a single exchange via singleflight. The stored
// session is last-writer-wins, which is acceptable because the exchange
// produces equivalent sessions.
func (c *Client) attemptRecovery(ctx context.Context) bool {
	cur, err := c.store.Load(ctx)
	if err != nil || cur.RefreshToken == "" {
		metrics.RefreshAttempts.WithLabelValues("no_refresh_token").Inc()
		return false
	}

	_, err, _ = c.refresh.Do("refresh", func() (any, error) {
		s, err := c.exchangeRefreshToken(ctx, cur.RefreshToken)
		if err != nil {
			return nil, err
		}
		if err := c.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("persist refreshed session: %w", err)
		}
		return s, nil
	})
	if err != nil {
		metrics.RefreshAttempts.WithLabelValues("failed").Inc()
		c.log.Warn("token refresh failed", "error", err)
		// Failed exchange ends the session: clear storage now so the
		// routed 401 finds nothing left to reuse.
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Error("failed to clear session after refresh failure", "error", cerr)
		}
		return false
	}

	metrics.RefreshAttempts.WithLabelValues("recovered").Inc()
	c.log.Info("session recovered via token refresh")
	return true
}

// exchangeRefreshToken swaps the long-lived refresh credential for a new
// session. The call is unauthenticated and bypasses the pipeline.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (*session.Session, error) {
	data, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+refreshPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh exchange: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh exchange returned HTTP %d", res.StatusCode)
	}

	var auth authPayload
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("parse refresh response: %w", err)
	}
	if auth.Token == "" {
		return nil, fmt.Errorf("refresh response missing token")
	}

	s := auth.session()
	if s.RefreshToken == "" {
		// Exchanges that do not rotate the refresh credential keep the
		// old one.
		s.RefreshToken = refreshToken
	}
	return s, nil
}
