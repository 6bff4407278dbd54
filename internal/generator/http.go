package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPClient calls a remote content-generation service. Calls are rate
// limited client-side: the service meters per-call credits, and a burst of
// retries must not drain them.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPClient(baseURL string, timeout time.Duration, callsPerMinute int) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if callsPerMinute <= 0 {
		callsPerMinute = 10
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(callsPerMinute)), 1),
	}
}

func (c *HTTPClient) Generate(ctx context.Context, goal string) (*GeneratedPlan, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("generator rate limit: %w", err)
	}

	body, err := json.Marshal(map[string]string{"goal": goal})
	if err != nil {
		return nil, fmt.Errorf("encode generator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var plan GeneratedPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}
	return &plan, nil
}
