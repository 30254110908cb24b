package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

const (
	// APIBase is the Monzo API host.
	APIBase = "https://api.monzo.com"

	// proactiveRate throttles requests well under Monzo's documented
	// limit of roughly 100 requests per 15 seconds.
	proactiveRate = 4.0
)

// Client is a Monzo API client. It authenticates through an
// oauth2.TokenSource, throttles proactively, and applies the bounded
// per-request RetryPolicy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	retry      RetryPolicy
	sleep      sleepFunc
}

var _ driven.TransactionSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a Monzo API client.
func NewClient(tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    APIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
		retry:      DefaultRetryPolicy(),
		sleep:      defaultSleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one authenticated GET without retrying. The caller
// classifies the response status.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monzo: %s: %w", path, err)
	}
	return resp, nil
}

// getJSON performs an authenticated GET with the bounded retry policy
// and decodes the response body into out.
//
// Classification per response:
//   - 401: fails immediately with domain.ErrTokenExpired
//   - 429: retried with the policy's backoff schedule, then *RateLimitError
//   - 5xx: retried once after a fixed delay, then *ServiceUnavailableError
//   - any other non-200: fails immediately with *APIError
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	rateLimited := 0
	serverErrors := 0

	for {
		resp, err := c.get(ctx, path, query)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("monzo: decoding %s response: %w", path, err)
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("monzo: %s: %w", path, domain.ErrTokenExpired)

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			rateLimited++
			if rateLimited >= c.retry.RateLimitAttempts {
				return &RateLimitError{Attempts: rateLimited}
			}
			if err := c.sleep(ctx, c.retry.rateLimitDelay(rateLimited)); err != nil {
				return err
			}

		case resp.StatusCode >= http.StatusInternalServerError:
			status := resp.StatusCode
			resp.Body.Close()
			serverErrors++
			if serverErrors > c.retry.ServerErrorRetries {
				return &ServiceUnavailableError{StatusCode: status, Attempts: serverErrors}
			}
			if err := c.sleep(ctx, c.retry.ServerErrorDelay); err != nil {
				return err
			}

		default:
			apiErr := decodeAPIError(resp, path)
			resp.Body.Close()
			return apiErr
		}
	}
}

func decodeAPIError(resp *http.Response, path string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, URL: path}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	return apiErr
}
