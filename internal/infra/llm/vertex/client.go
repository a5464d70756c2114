package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultLocation = "us-central1"
	defaultTimeout  = 30 * time.Second
	cloudScope      = "https://www.googleapis.com/auth/cloud-platform"
)

// Client issues authenticated requests to Vertex AI model endpoints.
type Client struct {
	projectID   string
	location    string
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

// NewClient builds a client using application default credentials.
func NewClient(ctx context.Context, projectID, location string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertex project id is required")
	}
	if location == "" {
		location = defaultLocation
	}
	ts, err := google.DefaultTokenSource(ctx, cloudScope)
	if err != nil {
		return nil, fmt.Errorf("vertex token source: %w", err)
	}
	return &Client{
		projectID:   projectID,
		location:    location,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		tokenSource: ts,
	}, nil
}

func (c *Client) modelEndpoint(model, verb string) string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.location, c.projectID, c.location, model, verb)
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode vertex request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build vertex request: %w", err)
	}
	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("vertex token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vertex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("vertex request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read vertex response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode vertex response: %w", err)
	}
	return nil
}
