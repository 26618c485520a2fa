package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
	"github.com/custodia-labs/grantsync/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultBackoff applies after a 429 that carries no Retry-After.
	DefaultBackoff = 60 * time.Second

	// HeaderAppToken carries the Socrata application token.
	HeaderAppToken = "X-App-Token"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Ensure Client implements the interface.
var _ driven.DatasetAPI = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// Domain is the portal host, e.g. "data.delaware.gov".
	Domain string

	// BaseURL overrides the https://{Domain} endpoint.
	BaseURL string

	// AppToken is sent as X-App-Token when set.
	AppToken string

	// AccessToken is sent as an OAuth bearer token when set.
	AccessToken string

	// RequestsPerSecond bounds the request rate.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Backoff is the pause after a 429 without Retry-After.
	// Defaults to DefaultBackoff.
	Backoff time.Duration

	// HTTPClient overrides the transport. Timeout and AccessToken are
	// not applied to a supplied client.
	HTTPClient *http.Client
}

// Client talks to a Socrata portal.
type Client struct {
	http        *http.Client
	baseURL     string
	appToken    string
	rateLimiter *RateLimiter
	backoff     time.Duration
}

// NewClient creates a Socrata client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.Domain == "" {
			return nil, fmt.Errorf("%w: socrata domain is required", domain.ErrInvalidInput)
		}
		base = "https://" + strings.TrimRight(cfg.Domain, "/")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: socrata base url: %w", domain.ErrInvalidInput, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.AccessToken != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
			httpClient = oauth2.NewClient(ctx, ts)
		} else {
			httpClient = &http.Client{}
		}
		httpClient.Timeout = timeout
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &Client{
		http:        httpClient,
		baseURL:     base,
		appToken:    cfg.AppToken,
		rateLimiter: NewRateLimiter(RateLimitConfig{RequestsPerSecond: cfg.RequestsPerSecond}),
		backoff:     backoff,
	}, nil
}

// viewResponse is the subset of /api/views/{id}.json the sync reads.
type viewResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RowsUpdatedAt int64  `json:"rowsUpdatedAt"`
}

// Metadata fetches the dataset's metadata. RowsUpdatedAt is returned in UTC.
func (c *Client) Metadata(ctx context.Context, datasetID string) (*domain.DatasetMetadata, error) {
	endpoint := fmt.Sprintf("%s/api/views/%s.json", c.baseURL, url.PathEscape(datasetID))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", datasetID, err)
	}

	var view viewResponse
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("metadata %s: %w: %w", datasetID, ErrUnexpectedPayload, err)
	}
	if view.RowsUpdatedAt <= 0 {
		return nil, fmt.Errorf("metadata %s: %w", datasetID, ErrMissingUpdateTime)
	}

	id := view.ID
	if id == "" {
		id = datasetID
	}

	return &domain.DatasetMetadata{
		ID:            id,
		Name:          view.Name,
		RowsUpdatedAt: time.Unix(view.RowsUpdatedAt, 0).UTC(),
	}, nil
}

// Records fetches up to limit records in the portal's default order.
func (c *Client) Records(ctx context.Context, datasetID string, limit int) (*domain.Dataset, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("$limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, url.PathEscape(datasetID), q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("records %s: %w", datasetID, err)
	}

	ds, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("records %s: %w", datasetID, err)
	}

	logger.Debug("Fetched %d records from %s", ds.Len(), datasetID)
	return ds, nil
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// get performs one rate-limited GET. A 429 holds off later requests for
// the Retry-After window but the failed request is not repeated.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.do(ctx, endpoint)
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set(HeaderAppToken, c.appToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := c.backoff
		if s := resp.Header.Get(HeaderRetryAfter); s != "" {
			if seconds, err := strconv.Atoi(s); err == nil && seconds > 0 {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.rateLimiter.Backoff(retryAfter)
		return nil, &RateLimitError{RetryAfter: retryAfter, URL: endpoint}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// errorResponse is the JSON body Socrata sends with most errors.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newAPIError(resp *http.Response, endpoint string) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		URL:        endpoint,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
