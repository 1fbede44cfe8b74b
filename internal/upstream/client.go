// Package upstream is the HTTP client for the property-management API. It
// performs authenticated GETs against the versioned REST endpoints and
// returns the decoded JSON body; all shape interpretation lives in the
// flatten package.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.cloudbeds.com/api/v1.3"

// Endpoint paths relative to the base URL.
const (
	EndpointSources        = "getSources"
	EndpointTaxesFees      = "getTaxesAndFees"
	EndpointRoomTypes      = "getRoomTypes"
	EndpointRooms          = "getRooms"
	EndpointPaymentMethods = "getPaymentMethods"
	EndpointItems          = "getItems"
)

// Client calls the upstream API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a Client for the given API root. An empty baseURL uses
// DefaultBaseURL; a zero timeout defaults to 30s; a nil logger falls back
// to slog.Default.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Fetch GETs one endpoint for one property and returns the decoded JSON
// body. Failures are returned as *Error carrying the classified kind; a
// non-200 status extracts a best-effort message from the error body.
func (c *Client) Fetch(ctx context.Context, endpoint, token, propertyID string) (any, error) {
	if token == "" {
		return nil, &Error{
			Kind:     KindMissingCredentials,
			Endpoint: endpoint,
			Message:  "access token not configured",
		}
	}

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint,
		url.Values{"propertyID": {propertyID}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: endpoint, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransport(endpoint, err)
	}
	defer resp.Body.Close()

	c.log.Debug("upstream call",
		"endpoint", endpoint,
		"property_id", propertyID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &Error{Kind: KindConnection, Endpoint: endpoint, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:     KindHTTP,
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  errorMessage(body, resp.StatusCode),
		}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Error{Kind: KindDecode, Endpoint: endpoint, Message: "invalid JSON response"}
	}
	return decoded, nil
}

func (c *Client) classifyTransport(endpoint string, err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Message: "request timed out"}
	}
	return &Error{Kind: KindConnection, Endpoint: endpoint, Message: "connection error: " + err.Error()}
}

// errorMessage pulls "message" (or "error") out of a non-200 body, falling
// back to the bare status.
func errorMessage(body []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
