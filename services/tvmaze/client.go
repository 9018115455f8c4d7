// Package tvmaze is the remote catalog collaborator: it fetches a series'
// episode list (returning both the parsed form and the exact bytes fetched,
// so callers can cache the untouched wire payload) and resolves per-episode
// runtimes for watch-time aggregation. No call in this package retries.
package tvmaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"showtrack/models"
)

const DefaultBaseURL = "https://api.tvmaze.com"

// StatusError reports a non-2xx response from the remote catalog.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tvmaze: %s returned status %d", e.URL, e.Code)
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, httpc *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// EpisodeList fetches the full ordered episode list of a series. The raw
// response body is returned alongside the parsed episodes so the cache can
// store the exact wire payload instead of a re-serialization.
func (c *Client) EpisodeList(ctx context.Context, seriesID int) ([]models.Episode, []byte, error) {
	url := c.baseURL + "/shows/" + strconv.Itoa(seriesID) + "/episodes"
	raw, err := c.get(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	var episodes []models.Episode
	if err := json.Unmarshal(raw, &episodes); err != nil {
		return nil, nil, fmt.Errorf("decode episode list for series %d: %w", seriesID, err)
	}
	return episodes, raw, nil
}

// Episode fetches a single episode by its season and number.
func (c *Client) Episode(ctx context.Context, seriesID, season, number int) (models.Episode, error) {
	url := fmt.Sprintf("%s/shows/%d/episodebynumber?season=%d&number=%d", c.baseURL, seriesID, season, number)
	raw, err := c.get(ctx, url)
	if err != nil {
		return models.Episode{}, err
	}
	var episode models.Episode
	if err := json.Unmarshal(raw, &episode); err != nil {
		return models.Episode{}, fmt.Errorf("decode episode S%dE%d of series %d: %w", season, number, seriesID, err)
	}
	return episode, nil
}

// EpisodeRuntime resolves the runtime in minutes of a single episode. Used
// only by the watch-time statistics aggregation.
func (c *Client) EpisodeRuntime(ctx context.Context, seriesID, season, number int) (int, error) {
	episode, err := c.Episode(ctx, seriesID, season, number)
	if err != nil {
		return 0, err
	}
	return episode.Runtime, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tvmaze: %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tvmaze: read %s: %w", url, err)
	}
	return raw, nil
}
