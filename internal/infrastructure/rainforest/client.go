package rainforest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/optiprice/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	maxResponseBytes = 8 << 20
	maxErrorBytes    = 1024
)

// errNotFound marks a product lookup the API answered with 404
var errNotFound = errors.New("product not found")

// Options configures a Rainforest client
type Options struct {
	AmazonDomain    string
	SortBy          string
	Timeout         time.Duration
	RequestsPerHour int
}

// Client handles communication with the Rainforest product data API
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	amazonDomain string
	sortBy       string
	rateLimiter  *rate.Limiter
	debug        bool
}

// NewClient creates a new Rainforest API client
func NewClient(apiKey, baseURL string, opts Options) *Client {
	if opts.AmazonDomain == "" {
		opts.AmazonDomain = "amazon.de"
	}
	if opts.SortBy == "" {
		opts.SortBy = "featured"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerHour <= 0 {
		opts.RequestsPerHour = 1000
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(opts.RequestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		amazonDomain: opts.AmazonDomain,
		sortBy:       opts.SortBy,
		rateLimiter:  limiter,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[RAINFOREST] "+format, args...)
	}
}

// Search returns up to limit candidates for keyword in marketplace order
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]domain.Candidate, error) {
	c.debugLog("Search called with keyword: %q", keyword)

	params := url.Values{}
	params.Add("type", "search")
	params.Add("amazon_domain", c.amazonDomain)
	params.Add("search_term", keyword)
	params.Add("sort_by", c.sortBy)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	var searchResp domain.RainforestSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSearchUnavailable, err)
	}

	candidates := make([]domain.Candidate, 0, len(searchResp.SearchResults))
	for _, item := range searchResp.SearchResults {
		if item.ASIN == "" {
			continue
		}
		candidates = append(candidates, MapSearchResult(item))
		if limit > 0 && len(candidates) == limit {
			break
		}
	}

	c.debugLog("Found %d candidates for keyword: %q", len(candidates), keyword)
	return candidates, nil
}

// FetchDetail retrieves the product text of one listing. A listing the API has no
// product for yields (nil, nil).
func (c *Client) FetchDetail(ctx context.Context, id string) (*domain.ProductText, error) {
	c.debugLog("FetchDetail called for ASIN: %s", id)

	params := url.Values{}
	params.Add("type", "product")
	params.Add("amazon_domain", c.amazonDomain)
	params.Add("asin", id)

	body, err := c.get(ctx, params)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetailUnavailable, err)
	}

	var productResp domain.RainforestProductResponse
	if err := json.Unmarshal(body, &productResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrDetailUnavailable, err)
	}

	if productResp.Product == nil {
		c.debugLog("No product in response for ASIN: %s", id)
		return nil, nil
	}

	return MapProduct(productResp.Product), nil
}

// get performs a rate limited GET against the request endpoint.
// Transport errors, 429 and 5xx responses are retried; other statuses are not.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/request?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[RAINFOREST] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			continue
		}

		body, err := readLimitedBody(resp.Body, maxResponseBytes)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, errNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Printf("[RAINFOREST] API error (attempt %d) - Status: %d, Body: %s",
				attempt, resp.StatusCode, truncate(body, maxErrorBytes))
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		default:
			log.Printf("[RAINFOREST] API error - Status: %d, Body: %s",
				resp.StatusCode, truncate(body, maxErrorBytes))
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
	}

	log.Printf("[RAINFOREST] All %d attempts failed", maxAttempts)
	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "OptiPrice/1.0")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// exponentialBackoff returns the wait before retry n: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
