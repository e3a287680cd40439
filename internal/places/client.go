// Package places provides the HTTP client for the places-search collaborator
// used by the opportunity synthesizer. The collaborator speaks a small JSON
// contract: business search by category+location, and details+reviews by id.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/fetchhttp"
)

// Business is one place returned by the collaborator.
type Business struct {
	SourceID    string  `json:"source_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Phone       string  `json:"phone,omitempty"`
	Website     string  `json:"website,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// Review is one customer review attached to a business.
type Review struct {
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	Date       time.Time `json:"date"`
	AuthorName string    `json:"author_name"`
}

// SearchRequest describes a business search.
type SearchRequest struct {
	Query      string
	Location   string
	MinReviews int
}

// Config controls the client.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client calls the places-search collaborator over HTTP.
type Client struct {
	cfg    Config
	http   *fetchhttp.Client
	logger *zap.Logger
}

// NewClient builds a Client.
func NewClient(cfg Config, httpClient *fetchhttp.Client, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("places base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

type searchResponse struct {
	Businesses []Business `json:"businesses"`
	Error      string     `json:"error,omitempty"`
}

type detailsResponse struct {
	Business Business `json:"business"`
	Reviews  []Review `json:"reviews"`
	Error    string   `json:"error,omitempty"`
}

// SearchBusinesses looks up businesses matching the category query near the
// location, keeping only those with at least MinReviews reviews.
func (c *Client) SearchBusinesses(ctx context.Context, req SearchRequest) ([]Business, error) {
	values := url.Values{}
	values.Set("query", req.Query)
	values.Set("location", req.Location)
	if req.MinReviews > 0 {
		values.Set("min_reviews", fmt.Sprintf("%d", req.MinReviews))
	}
	if c.cfg.APIKey != "" {
		values.Set("key", c.cfg.APIKey)
	}

	resp, err := c.http.Get(ctx, c.cfg.BaseURL+"/v1/businesses/search?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("places search: status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("places search: decode: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("places search: %s", payload.Error)
	}
	return payload.Businesses, nil
}

// GetBusinessDetails fetches the full record and reviews for one business.
func (c *Client) GetBusinessDetails(ctx context.Context, sourceID string) (Business, []Review, error) {
	values := url.Values{}
	if c.cfg.APIKey != "" {
		values.Set("key", c.cfg.APIKey)
	}
	endpoint := fmt.Sprintf("%s/v1/businesses/%s?%s", c.cfg.BaseURL, url.PathEscape(sourceID), values.Encode())

	resp, err := c.http.Get(ctx, endpoint, nil)
	if err != nil {
		return Business{}, nil, fmt.Errorf("places details: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Business{}, nil, fmt.Errorf("places details: status %d", resp.StatusCode)
	}

	var payload detailsResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return Business{}, nil, fmt.Errorf("places details: decode: %w", err)
	}
	if payload.Error != "" {
		return Business{}, nil, fmt.Errorf("places details: %s", payload.Error)
	}
	return payload.Business, payload.Reviews, nil
}
