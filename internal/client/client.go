// Package client is the HTTP client of the remote auth and portfolio services.
//
// Every method is a single request/response round trip. Nothing is retried:
// a failed call returns an error and the caller's state is left as it was.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
)

// maxResponseSize bounds how much of a response body is read; works carry embedded images
const maxResponseSize = 64 << 20

// Client wraps HTTP calls to the auth and portfolio services
type Client struct {
	authURL      string
	portfolioURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a Client for the given service endpoints
func NewClient(authURL, portfolioURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		authURL:      strings.TrimSpace(authURL),
		portfolioURL: strings.TrimSpace(portfolioURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// envelope is the union of every response shape the two services send
type envelope struct {
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	User       *models.User  `json:"user,omitempty"`
	Work       *models.Work  `json:"work,omitempty"`
	Works      []models.Work `json:"works"`
	IsFavorite bool          `json:"is_favorite"`
}

// withQuery returns base with params merged into its query string
func withQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid service url: %w", err)
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// do sends one request and decodes the envelope.
// requireSuccess marks write calls, whose envelope must carry success=true.
func (c *Client) do(ctx context.Context, op, method, target string, body any, requireSuccess bool) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("service request failed", zap.String("op", op), zap.Error(err))
		return nil, &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("failed to read service response", zap.String("op", op), zap.Error(err))
		return nil, &models.NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("service request",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &models.ServiceError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		c.logger.Error("failed to decode service response", zap.String("op", op), zap.Error(decodeErr))
		return nil, &models.NetworkError{Op: op, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if requireSuccess && !env.Success {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("%s failed", op)
		}
		return nil, &models.ServiceError{Status: resp.StatusCode, Message: msg}
	}

	return &env, nil
}
