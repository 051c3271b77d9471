package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Quote is the live-price view of one item.
type Quote struct {
	ItemID    string
	Title     string
	Brand     string
	Category  string
	ImageURL  string
	Price     float64
	Currency  string
	Available bool

	ListPrice      *float64
	BuyBoxPrice    *float64
	SavingsPercent *float64
	SalesRank      *int
}

// Stats is the historical-stats view of one item. All fields are nil when
// the provider has not accumulated data for that window yet.
type Stats struct {
	ItemID      string
	Avg30       *float64
	Avg90       *float64
	Avg180      *float64
	AllTimeLow  *float64
	AllTimeHigh *float64
}

// restClient is the shared HTTP plumbing for both provider clients.
type restClient struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a provider client.
type Option func(*restClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *restClient) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *restClient) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *restClient) {
		c.httpClient = hc
	}
}

func newRESTClient(name, baseURL, apiKey string, opts ...Option) restClient {
	c := restClient{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// getJSON performs a GET against the provider and decodes the response,
// mapping HTTP failures onto the source error taxonomy.
func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &Error{Kind: KindFatal, Source: c.name, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Source: c.name, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransient, Source: c.name, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return &Error{
			Kind:   classifyStatus(resp.StatusCode),
			Source: c.name,
			Err:    fmt.Errorf("http %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &Error{Kind: KindTransient, Source: c.name, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}

// classifyStatus maps an HTTP status onto the failure taxonomy. A provider
// 429 counts as transient: our own limiter makes it rare, and backing off
// is the right response when it happens.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindFatal
	case status == http.StatusTooManyRequests || status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}
