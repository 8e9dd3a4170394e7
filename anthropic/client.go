package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the production Messages API endpoint.
	DefaultBaseURL = "https://api.anthropic.com/v1/messages"

	// apiVersion pins the wire-protocol revision.
	apiVersion = "2023-06-01"
)

// Client issues Messages API requests. It is safe for concurrent use;
// the game loop only ever keeps one request in flight.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the endpoint URL (used by tests).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithLogger sets a structured logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client with the given credential.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one request and blocks until the response arrives, the
// context deadline fires, or the transport fails. The caller owns the
// deadline; the client arms no timer of its own.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Message: "encoding request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	c.logger.Debug("sending completion request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)))

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &TimeoutError{ClientError: ClientError{Message: "request deadline exceeded", Cause: err}}
		}
		return nil, &NetworkError{ClientError: ClientError{Message: "transport failure", Cause: err}}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{ClientError: ClientError{Message: "reading response body", Cause: err}}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.decodeError(httpResp.StatusCode, respBody)
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &MalformedResponseError{ClientError: ClientError{Message: "decoding response body", Cause: err}}
	}
	if len(resp.Content) == 0 {
		return nil, &MalformedResponseError{ClientError: ClientError{Message: "response has no content blocks"}}
	}

	c.logger.Debug("completion received",
		zap.String("stop_reason", resp.StopReason),
		zap.Int("output_tokens", resp.Usage.OutputTokens))

	return &resp, nil
}

// decodeError extracts the structured error object, falling back to the
// status code when the body is not the expected envelope.
func (c *Client) decodeError(statusCode int, body []byte) error {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Type == "" {
		return errorFromBody(statusCode, "", http.StatusText(statusCode))
	}
	c.logger.Warn("endpoint reported error",
		zap.Int("status", statusCode),
		zap.String("type", envelope.Error.Type),
		zap.String("message", envelope.Error.Message))
	return errorFromBody(statusCode, envelope.Error.Type, envelope.Error.Message)
}
