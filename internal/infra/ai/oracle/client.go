// Package oracle is the resilient HTTP client for the inference
// endpoint (POST /api/chat, {model, input} -> {response}).
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/clinassist/internal/domain/analysis"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 2
	defaultBackoff     = 1 * time.Second
)

type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.SugaredLogger
}

// New applies defaults for anything unset. The credential is checked
// per call, not here, so a misconfigured deployment still boots and
// serves degraded answers.
func New(cfg Config, log *zap.SugaredLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:12345"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

type chatRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Complete sends the prompt, retrying up to MaxAttempts with a fixed
// backoff between attempts. A missing credential is a configuration
// error, not a transient fault: it fails fast with ErrNotConfigured.
// Exhausted retries yield ErrUnavailable wrapping the last attempt
// error; callers treat that as a normal degraded-mode outcome.
func (c *Client) Complete(ctx context.Context, promptText string) (string, error) {
	if c.cfg.APIKey == "" {
		c.log.Errorw("oracle credential missing, refusing to call endpoint",
			"endpoint", c.cfg.BaseURL)
		return "", analysis.ErrNotConfigured
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", analysis.ErrUnavailable, ctx.Err())
			case <-time.After(c.cfg.Backoff):
			}
		}

		text, err := c.attempt(ctx, promptText)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warnw("oracle attempt failed",
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err)
	}

	c.log.Errorw("oracle attempts exhausted",
		"attempts", c.cfg.MaxAttempts,
		"last_error", lastErr)
	return "", fmt.Errorf("%w: %v", analysis.ErrUnavailable, lastErr)
}

// attempt does one POST. Failure modes: network error, non-2xx status,
// body that does not decode as a JSON object, or a missing/empty
// response field.
func (c *Client) attempt(ctx context.Context, promptText string) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Input: promptText})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("response field missing or empty")
	}
	return out.Response, nil
}
