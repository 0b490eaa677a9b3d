package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSnapshotClient fetches scraped market snapshots from the scraper's
// /snapshots endpoint.
type HTTPSnapshotClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSnapshotClient creates a new HTTP client for fetching snapshots.
func NewHTTPSnapshotClient(baseURL string) *HTTPSnapshotClient {
	if baseURL == "" {
		return nil
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPSnapshotClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SnapshotRow is one scraped observation as delivered by the scraper. Field
// values stay raw (string or number) and go through the parse converters at
// evaluation time.
type SnapshotRow struct {
	Home      string         `json:"home"`
	Away      string         `json:"away"`
	League    string         `json:"league"`
	Kickoff   string         `json:"kickoff"`
	Market    string         `json:"market"`
	ScrapedAt string         `json:"scraped_at"`
	Fields    map[string]any `json:"fields"`
}

// snapshotsResponse represents the response from the /snapshots endpoint.
type snapshotsResponse struct {
	Snapshots []SnapshotRow `json:"snapshots"`
	Meta      struct {
		Count    int    `json:"count"`
		Duration string `json:"duration"`
		Source   string `json:"source"`
	} `json:"meta"`
}

// GetSnapshots fetches the current scrape batch.
func (c *HTTPSnapshotClient) GetSnapshots(ctx context.Context) ([]SnapshotRow, error) {
	if c == nil {
		return nil, fmt.Errorf("HTTP client is not configured")
	}

	u, err := url.Parse(c.baseURL + "/snapshots")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var snapshotsResp snapshotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapshotsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return snapshotsResp.Snapshots, nil
}
