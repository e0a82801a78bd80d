package stockmedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// VideoFile is one downloadable rendition of a stock video.
type VideoFile struct {
	ID      int64  `json:"id"`
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

// Video represents a single stock video match.
type Video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   int         `json:"duration"`
	URL        string      `json:"url"`
	Image      string      `json:"image"`
	VideoFiles []VideoFile `json:"video_files"`
}

// VideoResponse models the paginated video search response.
type VideoResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// PhotoSource holds the rendition URLs of a stock photo.
type PhotoSource struct {
	Original string `json:"original"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
}

// Photo represents a single stock photo match.
type Photo struct {
	ID     int64       `json:"id"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	URL    string      `json:"url"`
	Alt    string      `json:"alt"`
	Src    PhotoSource `json:"src"`
}

// PhotoResponse models the paginated photo search response.
type PhotoResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Photos       []Photo `json:"photos"`
}

// SearchOptions contains optional parameters for stock media searches.
type SearchOptions struct {
	PerPage     int
	Orientation string // landscape, portrait, square
}

// Searcher defines the stock media operations used by the visuals stage.
type Searcher interface {
	SearchVideos(ctx context.Context, query string, opts SearchOptions) (*VideoResponse, error)
	SearchPhotos(ctx context.Context, query string, opts SearchOptions) (*PhotoResponse, error)
}

// Client provides access to a Pexels-compatible stock media API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a stock media client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stock media api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("stock media base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchVideos searches for stock footage matching the query.
func (c *Client) SearchVideos(ctx context.Context, query string, opts SearchOptions) (*VideoResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/videos/search")
	if err != nil {
		return nil, fmt.Errorf("parse stock media url: %w", err)
	}
	endpoint.RawQuery = c.searchParams(query, opts).Encode()

	var payload VideoResponse
	if err := c.get(ctx, endpoint.String(), "video search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchPhotos searches for stock photos matching the query.
func (c *Client) SearchPhotos(ctx context.Context, query string, opts SearchOptions) (*PhotoResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/v1/search")
	if err != nil {
		return nil, fmt.Errorf("parse stock media url: %w", err)
	}
	endpoint.RawQuery = c.searchParams(query, opts).Encode()

	var payload PhotoResponse
	if err := c.get(ctx, endpoint.String(), "photo search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) searchParams(query string, opts SearchOptions) url.Values {
	params := url.Values{}
	params.Set("query", query)
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 5
	}
	params.Set("per_page", strconv.Itoa(perPage))
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}
	return params
}

func (c *Client) get(ctx context.Context, endpoint, operation string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stock media %s returned %d (latency=%v)", operation, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode stock media response: %w", err)
	}
	return nil
}
