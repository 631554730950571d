// Package syb talks to the Soundtrack Your Brand GraphQL API and enumerates
// the zone inventory visible to the configured service account.
package syb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightears/zonewatch/internal/logging"
)

// Client is a minimal GraphQL client authenticated with the PublicAPIClient
// Basic token.
type Client struct {
	endpoint string
	apiKey   string
	pageSize int
	httpc    *http.Client
}

// NewClient returns a client for the given endpoint. apiKey is the
// pre-encoded base64 Basic token of the service account.
func NewClient(endpoint, apiKey string, pageSize int, timeout time.Duration) *Client {
	if pageSize <= 0 {
		pageSize = 50
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		pageSize: pageSize,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// query executes one GraphQL request and unmarshals the data payload into
// out. Responses carrying both data and errors are treated as usable: the
// errors are logged at warn level and the partial data is returned.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("graphql endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	hasData := len(decoded.Data) > 0 && string(decoded.Data) != "null"
	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			msgs = append(msgs, e.Message)
		}
		if !hasData {
			return fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
		}
		logging.Get().Warn().Strs("errors", msgs).Msg("graphql response carried errors alongside usable data")
	}
	if !hasData {
		return fmt.Errorf("graphql response carried no data")
	}
	return json.Unmarshal(decoded.Data, out)
}
