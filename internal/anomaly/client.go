package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshworks/assetgate/internal/scene"
)

// defaultTimeout bounds one scoring request.
const defaultTimeout = 30 * time.Second

// HTTPClient calls an anomaly scorer service over HTTP. The service
// accepts an object state as JSON and returns a Result.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the scorer at endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// analyzeRequest is the scoring request body.
type analyzeRequest struct {
	Object scene.ObjectState `json:"object"`
}

// Analyze posts the object to the scorer and decodes its verdict.
func (c *HTTPClient) Analyze(ctx context.Context, obj scene.ObjectState) (*Result, error) {
	body, err := json.Marshal(analyzeRequest{Object: obj})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call anomaly scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anomaly scorer returned %d: %s", resp.StatusCode, data)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode scorer response: %w", err)
	}
	if result.Score < 0 || result.Score > 1 {
		return nil, fmt.Errorf("scorer returned out-of-range score %f", result.Score)
	}
	return &result, nil
}
