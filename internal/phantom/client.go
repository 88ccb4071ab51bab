// Package phantom talks to the PhantomBuster v2 API: launching an agent,
// reading a container's status and fetching its result object.
package phantom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	appErrors "github.com/unclebandit/talentreach-backend/internal/errors"
)

const (
	DefaultBaseURL = "https://api.phantombuster.com/api/v2"
	APIKeyEnv      = "PHANTOMBUSTER_API_KEY"
	apiKeyHeader   = "X-Phantombuster-Key-1"

	// bodies beyond this are truncated in UpstreamError
	maxErrorBody = 4096
)

// Client is safe for concurrent use. It never retries; callers own retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     func() string
}

// New creates a Client that reads the API key from the environment on every call.
func New(baseURL string) *Client {
	return NewWithKey(baseURL, func() string { return os.Getenv(APIKeyEnv) })
}

// NewWithKey creates a Client with an explicit key source.
func NewWithKey(baseURL string, apiKey func() string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
}

type launchRequest struct {
	ID          string         `json:"id"`
	Arguments   map[string]any `json:"arguments"`
	MaxDuration int            `json:"maxDuration"`
}

// Launch starts agentID and returns the container id of the new execution.
func (c *Client) Launch(ctx context.Context, agentID string, args map[string]any, maxDurationSec int) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(launchRequest{ID: agentID, Arguments: args, MaxDuration: maxDurationSec})
	if err != nil {
		return "", fmt.Errorf("encoding launch request: %w", err)
	}

	raw, err := c.do(ctx, "launch", http.MethodPost, "/agents/launch", body)
	if err != nil {
		return "", err
	}
	return ParseContainerID(raw)
}

type statusResponse struct {
	Status string `json:"status"`
}

// FetchStatus returns the container's free-text status as reported upstream.
func (c *Client) FetchStatus(ctx context.Context, containerID string) (string, error) {
	raw, err := c.do(ctx, "fetch status", http.MethodGet, "/containers/fetch?id="+url.QueryEscape(containerID), nil)
	if err != nil {
		return "", err
	}
	var resp statusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding status response: %w", err)
	}
	return resp.Status, nil
}

// FetchOutput returns the container's result payload untouched. Use
// ExtractLeads to get at the lead objects.
func (c *Client) FetchOutput(ctx context.Context, containerID string) (json.RawMessage, error) {
	raw, err := c.do(ctx, "fetch output", http.MethodGet, "/containers/fetch-result-object?id="+url.QueryEscape(containerID), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("fetch output: response is not JSON")
	}
	return json.RawMessage(raw), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	key := c.apiKey()
	if key == "" {
		return nil, appErrors.NewConfigurationError(APIKeyEnv)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, appErrors.NewUpstreamError(op, resp.StatusCode, string(raw))
	}
	return raw, nil
}
