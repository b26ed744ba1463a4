package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
)

var ErrMalformedResponse = errors.New("malformed response from booking endpoint")

// RemoteError is a non-2xx answer from a booking endpoint.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("booking endpoint returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("booking endpoint returned %d", e.StatusCode)
}

// Client talks to the two booking endpoints.
type Client interface {
	Checkout(ctx context.Context, p Payload) (redirectURL string, err error)
	RequestBooking(ctx context.Context, p Payload) (confirmation map[string]any, err error)
}

type HTTPClient struct {
	baseURL      string
	checkoutPath string
	requestPath  string
	client       *http.Client
}

// NewHTTPClient builds a client for baseURL. A zero timeout leaves the call
// bounded only by the transport and the caller's context.
func NewHTTPClient(baseURL, checkoutPath, requestPath string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		checkoutPath: checkoutPath,
		requestPath:  requestPath,
		client:       &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Checkout(ctx context.Context, p Payload) (string, error) {
	body, err := c.post(ctx, c.checkoutPath, p)
	if err != nil {
		return "", err
	}

	var res struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if res.URL == "" {
		return "", fmt.Errorf("%w: missing url", ErrMalformedResponse)
	}
	return res.URL, nil
}

func (c *HTTPClient) RequestBooking(ctx context.Context, p Payload) (map[string]any, error) {
	body, err := c.post(ctx, c.requestPath, p)
	if err != nil {
		return nil, err
	}

	confirmation := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return confirmation, nil
	}
	if err := json.Unmarshal(body, &confirmation); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return confirmation, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, p Payload) ([]byte, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Posting booking payload", "url", url, "bytes", len(payload))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var res struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &res)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: res.Error}
	}
	return body, nil
}
