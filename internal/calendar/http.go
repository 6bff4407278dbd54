package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"goalplanner/internal/schedule"
)

// HTTPClient reads busy intervals from the calendar collaborator, which
// returns ISO-8601 {start, end} pairs.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type busyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (c *HTTPClient) BusyIntervals(ctx context.Context, externalRef string, from, to time.Time) ([]schedule.Interval, error) {
	q := url.Values{}
	q.Set("user", externalRef)
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/busy?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build busy request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch busy intervals: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}

	var raw []busyInterval
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode busy intervals: %w", err)
	}

	ivs := make([]schedule.Interval, 0, len(raw))
	for _, b := range raw {
		ivs = append(ivs, schedule.Interval{Start: b.Start, End: b.End})
	}
	return ivs, nil
}
