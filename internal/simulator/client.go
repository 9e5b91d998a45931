package simulator

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

	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
)

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPClient wraps http.Client with the server's JSON conventions.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type submitResult struct {
	Duplicate bool `json:"duplicate"`
}

// Health checks the metrics endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// CreateCourt creates a court and returns the server's reply.
func (c *HTTPClient) CreateCourt(ctx context.Context, courtID, secret string, referees []string) (types.CourtCreated, error) {
	var out types.CourtCreated
	body := map[string]any{"courtId": courtID, "secret": secret, "referees": referees}
	err := c.do(ctx, http.MethodPost, "/api/courts", body, &out)
	return out, err
}

// JoinReferee admits a referee to a court.
func (c *HTTPClient) JoinReferee(ctx context.Context, courtID, referee, secret string) error {
	body := map[string]string{"referee": referee, "secret": secret}
	return c.do(ctx, http.MethodPost, "/api/courts/"+url.PathEscape(courtID)+"/referees", body, nil)
}

// Submit sends one vote and reports whether the server saw it before.
func (c *HTTPClient) Submit(ctx context.Context, courtID string, v Vote) (bool, error) {
	var out submitResult
	err := c.do(ctx, http.MethodPost, "/api/courts/"+url.PathEscape(courtID)+"/scores", v, &out)
	return out.Duplicate, err
}

// Court fetches the full court view.
func (c *HTTPClient) Court(ctx context.Context, courtID string) (types.CourtView, error) {
	var out types.CourtView
	err := c.do(ctx, http.MethodGet, "/api/courts/"+url.PathEscape(courtID), nil, &out)
	return out, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Status: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil {
			se.Code, se.Message = e.Code, e.Message
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
