package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-payroll-admin/internal/shared/contextutil"

	"go.uber.org/zap"
)

type Config struct {
	BaseURL      string
	AuthProvider AuthProvider
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Envelope is the upstream response body: { message, data }.
type Envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the remote REST API. Calls are fire-once: no retry, no backoff.
type Client struct {
	baseURL string
	auth    AuthProvider
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg Config, logger ...*zap.Logger) *Client {
	l := zap.L().Named("restapi.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("restapi.client")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	auth := cfg.AuthProvider
	if auth == nil {
		auth = ContextTokenProvider{}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    auth,
		http:    httpClient,
		logger:  l,
	}
}

// Do sends a JSON request and decodes envelope.data into out (when out is non-nil).
// It returns envelope.message.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) (string, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(raw)
		c.logger.Warn("upstream request failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return "", toAppError(resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", toAppError(http.StatusBadGateway, "")
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.logger.Error("decode upstream data failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err),
			)
			return "", toAppError(http.StatusBadGateway, "")
		}
	}

	return env.Message, nil
}

// Raw performs a request and returns the response bytes untouched, e.g. a PDF.
func (c *Client) Raw(ctx context.Context, method, path string) ([]byte, string, error) {
	resp, err := c.send(ctx, method, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(raw)
		c.logger.Warn("upstream raw request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, "", toAppError(resp.StatusCode, msg)
	}

	return raw, resp.Header.Get("Content-Type"), nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve access token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("upstream unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, transportError(err)
	}
	return resp, nil
}

// serverMessage extracts {"message": "..."} or {"error": "..."} from an error body.
func serverMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}

	var s string
	if json.Unmarshal(body.Error, &s) == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}
