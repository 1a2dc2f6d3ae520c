package appstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/retry"
)

// DefaultTimeout is the maximum time to wait for an App Store Connect response.
const DefaultTimeout = 30 * time.Second

// DefaultPageSize is the maximum per-page review count Apple allows.
const DefaultPageSize = 200

// Config holds App Store Connect transport configuration.
type Config struct {
	// BaseURL of the App Store Connect API. Overridable for tests.
	BaseURL string
	// PageSize is the per-page review limit (max 200).
	PageSize int
	// Retry overrides the backoff policy for transient faults. Nil uses defaults.
	Retry *retry.Config
}

// ReviewAttributes is the vendor-reported payload of one customer review.
type ReviewAttributes struct {
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	ReviewerNickname string    `json:"reviewerNickname"`
	CreatedDate      time.Time `json:"createdDate"`
	Territory        string    `json:"territory"`
	IsEdited         bool      `json:"isEdited"`
}

// ReviewItem is one customer review as returned by the vendor. ID is the
// vendor review id: unique, immutable, and our sole upsert conflict key.
type ReviewItem struct {
	ID         string           `json:"id"`
	Attributes ReviewAttributes `json:"attributes"`
}

// FetchResult is one page of reviews. NextCursor is the opaque pagination
// link for the following page; empty means the collection is exhausted.
type FetchResult struct {
	Items      []ReviewItem
	NextCursor string
}

// AppListing is one app visible to a developer account, used by credential
// tests and the smart-import flow.
type AppListing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BundleID string `json:"bundleId"`
	SKU      string `json:"sku"`
}

// Client fetches review and app collections from App Store Connect.
// It is a dumb pass-through: transient transport faults are retried, anything
// else is raised for the caller to scope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a new App Store Connect client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    cfg.BaseURL,
		pageSize:   pageSize,
		retryCfg:   cfg.Retry,
		logger:     logger.Named("appstore"),
	}
}

// FetchPage retrieves one page of customer reviews for the app. The first
// call passes an empty cursor and requests newest-first ordering at the
// maximum page size; subsequent calls pass the cursor from the previous
// result. The API does not support createdDate filtering, so all date-range
// filtering is client-side and belongs to the caller.
func (c *Client) FetchPage(ctx context.Context, appStoreID, token, cursor string) (*FetchResult, error) {
	url := cursor
	if url == "" {
		url = fmt.Sprintf("%s/v1/apps/%s/customerReviews?sort=-createdDate&limit=%d",
			c.baseURL, appStoreID, c.pageSize)
	}

	var payload struct {
		Data  []ReviewItem `json:"data"`
		Links struct {
			Next string `json:"next"`
		} `json:"links"`
	}

	if err := c.getJSON(ctx, url, token, &payload); err != nil {
		return nil, fmt.Errorf("fetch reviews for app %s: %w", appStoreID, err)
	}

	c.logger.Debug("Fetched review page",
		zap.String("app_store_id", appStoreID),
		zap.Int("items", len(payload.Data)),
		zap.Bool("has_next", payload.Links.Next != ""))

	return &FetchResult{
		Items:      payload.Data,
		NextCursor: payload.Links.Next,
	}, nil
}

// ListApps retrieves the apps visible to the token's developer account.
func (c *Client) ListApps(ctx context.Context, token string) ([]AppListing, error) {
	url := fmt.Sprintf("%s/v1/apps?limit=200&fields[apps]=name,bundleId,sku", c.baseURL)

	var payload struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				Name     string `json:"name"`
				BundleID string `json:"bundleId"`
				SKU      string `json:"sku"`
			} `json:"attributes"`
		} `json:"data"`
	}

	if err := c.getJSON(ctx, url, token, &payload); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}

	apps := make([]AppListing, 0, len(payload.Data))
	for _, item := range payload.Data {
		apps = append(apps, AppListing{
			ID:       item.ID,
			Name:     item.Attributes.Name,
			BundleID: item.Attributes.BundleID,
			SKU:      item.Attributes.SKU,
		})
	}

	return apps, nil
}

// getJSON performs an authenticated GET and decodes the response, retrying
// transient faults with exponential backoff.
func (c *Client) getJSON(ctx context.Context, url, token string, out any) error {
	return retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("call App Store Connect: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			c.logger.Warn("App Store Connect returned error",
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)))
			return fmt.Errorf("App Store Connect returned status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		return nil
	})
}
