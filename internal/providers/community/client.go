// Package community reads ranked reviews and notifications from the review
// community service.
package community

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

const (
	providerName       = "community"
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512
)

// Config controls how the client reaches the community API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements providers.CommunitySource over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	now        func() time.Time
}

var _ providers.CommunitySource = (*Client)(nil)

// NewClient constructs a community client.
func NewClient(cfg Config) *Client {
	var doer httpDoer = cfg.HTTPClient
	if cfg.HTTPClient == nil {
		doer = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: doer,
		now:        time.Now,
	}
}

// FetchCommunityRankedGames returns one page of ranked reviews.
func (c *Client) FetchCommunityRankedGames(ctx context.Context, query providers.CommunityQuery) (providers.CommunityRankedGames, error) {
	q := url.Values{}
	if query.SortKey != "" {
		q.Set("sort", query.SortKey)
	}
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Page > 0 {
		q.Set("page", strconv.Itoa(query.Page))
	}

	var out providers.CommunityRankedGames
	if err := c.get(ctx, "/api/reviews", q, &out); err != nil {
		return providers.CommunityRankedGames{}, err
	}
	return out, nil
}

// FetchCommunityNotifications returns the user's community notifications.
func (c *Client) FetchCommunityNotifications(ctx context.Context, query providers.NotificationQuery) (providers.CommunityNotifications, error) {
	q := url.Values{}
	q.Set("includeRead", strconv.FormatBool(query.IncludeRead))
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}

	var out providers.CommunityNotifications
	if err := c.get(ctx, "/api/notifications", q, &out); err != nil {
		return providers.CommunityNotifications{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	target := c.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return providers.NewRateLimitError(providerName, resp, c.now())
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode %s: %w", providerName, path, err)
	}
	return nil
}
