// Package webhook posts order notifications to an external HTTP endpoint.
package webhook

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrIdempotencyConflict reports that the receiver already holds a delivery with the same key.
var ErrIdempotencyConflict = errors.New("webhook idempotency conflict")

// Payload is the JSON document posted for each notification.
type Payload struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OrderID    int64     `json:"orderId"`
	Recipients []int64   `json:"recipients"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sentAt"`
}

type errorBody struct {
	Message *string `json:"message,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Client delivers payloads to a single webhook URL.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// DeliverOption configures Deliver behavior.
type DeliverOption func(*deliverOptions)

type deliverOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header for the request.
func WithIdempotencyKey(key string) DeliverOption {
	return func(opts *deliverOptions) {
		opts.idempotencyKey = strings.TrimSpace(key)
	}
}

// NewClient instantiates the webhook client with sane defaults. Outgoing calls are traced.
func NewClient(endpoint string, httpClient *http.Client) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("webhook URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	traced := *httpClient
	transport := traced.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	traced.Transport = otelhttp.NewTransport(transport)
	return &Client{endpoint: endpoint, httpClient: &traced}, nil
}

// Deliver posts the payload and classifies the response.
func (c *Client) Deliver(ctx context.Context, payload Payload, optFns ...DeliverOption) error {
	if c == nil || c.httpClient == nil {
		return errors.New("webhook client not configured")
	}
	if strings.TrimSpace(payload.EventID) == "" {
		return errors.New("webhook event id is required")
	}
	var opts deliverOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrIdempotencyConflict, errorMessage(resp))
	case status >= http.StatusBadRequest:
		return fmt.Errorf("webhook error: %s", errorMessage(resp))
	default:
		return fmt.Errorf("webhook unexpected status: %s", resp.Status)
	}
}

func errorMessage(resp *http.Response) string {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return resp.Status
	}
	if body.Message != nil {
		if msg := strings.TrimSpace(*body.Message); msg != "" {
			return msg
		}
	}
	if body.Status != nil {
		if msg := strings.TrimSpace(*body.Status); msg != "" {
			return msg
		}
	}
	return resp.Status
}
