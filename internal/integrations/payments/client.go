// Package payments calls the external payment handoff service. The service
// owns tax lookup, FOODY conversion, and payment-link generation; the engine
// only ships it the finalized cart.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"avos/internal/domain"
)

// CheckoutInput is the finalized cart handed to the payment service.
type CheckoutInput struct {
	CallID        string             `json:"callId"`
	RestaurantID  string             `json:"restaurantId"`
	CustomerPhone string             `json:"customerPhone"`
	Jurisdiction  string             `json:"jurisdiction"`
	Items         []domain.OrderItem `json:"items"`
}

// Checkout is the payment service's quote plus the SMS-delivered link. The
// link expires server-side; ExpiresAt is informational.
type Checkout struct {
	SubtotalCents int64     `json:"subtotalCents"`
	TaxCents      int64     `json:"taxCents"`
	TotalCents    int64     `json:"totalCents"`
	FoodyAmount   string    `json:"foodyAmount"`
	ExchangeRate  string    `json:"exchangeRate"`
	PaymentURL    string    `json:"paymentUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// keyPayload is the expected JSON shape stored in SSM for the service key.
type keyPayload struct {
	Key string `json:"key"`
}

type Getter interface {
	GetJSON(ctx context.Context, name string, out any) error
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("payments: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the payment handoff service over HTTP.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. baseURL points at the payment service; the
// service key is resolved from SSM on first use and cached for the process
// lifetime.
func NewClient(ps Getter, paramPrefix, baseURL string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("payments: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("payments: parameter prefix must not be empty")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("payments: base URL must not be empty")
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchKeyFromParamStore(ctx, c.getter, c.paramPrefix+"/payments-key")
	})
	return c.apiKey, c.keyErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func checkoutURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/checkout"
}

// Checkout submits the cart and returns the priced quote with a payment link.
// The cart must not be empty.
func (c *Client) Checkout(ctx context.Context, in CheckoutInput) (Checkout, error) {
	if len(in.Items) == 0 {
		return Checkout{}, errors.New("payments: checkout requires at least one item")
	}
	if in.CallID == "" {
		return Checkout{}, errors.New("payments: call id must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return Checkout{}, err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return Checkout{}, fmt.Errorf("payments: marshal request: %w", err)
	}

	url := checkoutURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return Checkout{}, fmt.Errorf("payments: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return Checkout{}, fmt.Errorf("payments: request failed: %w", err)
	}

	var out Checkout
	if decErr := json.Unmarshal(raw, &out); decErr != nil {
		return Checkout{}, fmt.Errorf("payments: decode response: %w", decErr)
	}
	if out.PaymentURL == "" {
		return Checkout{}, errors.New("payments: response missing payment URL")
	}
	return out, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("payments: paramstore getter is nil")
	}

	var kp keyPayload
	if err := getter.GetJSON(ctx, name, &kp); err != nil {
		return "", fmt.Errorf("payments: fetch key from paramstore: %w", err)
	}
	if kp.Key == "" {
		return "", fmt.Errorf("payments: service key is empty")
	}
	return kp.Key, nil
}
