package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-sync/internal/errors"
)

const (
	// DefaultBaseURL is the production provider endpoint
	DefaultBaseURL = "https://api.stripe.com"

	// DefaultTimeout bounds every outbound call
	DefaultTimeout = 30 * time.Second

	// pageLimit is the provider's maximum page size
	pageLimit = "100"
)

// Client is an authenticated client for the provider's REST API.
// One client per instance: the API key selects the account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for one provider account
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Get issues a GET request with query parameters
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (map[string]interface{}, error) {
	return c.Request(ctx, http.MethodGet, path, params)
}

// Request issues a request and returns the decoded JSON body. Parameters
// are sent as the query string for GET and as a form-encoded body
// otherwise, matching the provider's wire format. Non-2xx responses are
// returned as provider errors with the response body attached.
func (c *Client) Request(ctx context.Context, method, path string, params map[string]string) (map[string]interface{}, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if len(values) > 0 {
			endpoint += "?" + values.Encode()
		}
	} else {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Internal("failed to build provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeProvider, err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeProvider, err, "%s %s: failed to read response", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Provider(
			method+" "+path+" returned "+resp.Status,
			resp.StatusCode,
			string(raw),
		)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Wrapf(errors.TypeProvider, err, "%s %s: invalid JSON response", method, path)
	}
	return decoded, nil
}

// PaginateAll fetches every item of a list endpoint in order, following
// the provider's starting_after cursor until has_more is false. A page
// with zero items is treated as exhausted so the loop always terminates.
func (c *Client) PaginateAll(ctx context.Context, path string, params map[string]string) ([]map[string]interface{}, error) {
	var items []map[string]interface{}
	cursor := ""

	for {
		page := make(map[string]string, len(params)+2)
		for k, v := range params {
			page[k] = v
		}
		page["limit"] = pageLimit
		if cursor != "" {
			page["starting_after"] = cursor
		}

		resp, err := c.Get(ctx, path, page)
		if err != nil {
			return nil, err
		}

		data, _ := resp["data"].([]interface{})
		if len(data) == 0 {
			return items, nil
		}
		for _, raw := range data {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			items = append(items, item)
		}

		hasMore, _ := resp["has_more"].(bool)
		if !hasMore {
			return items, nil
		}

		last := data[len(data)-1]
		lastItem, ok := last.(map[string]interface{})
		if !ok {
			return items, nil
		}
		id, ok := lastItem["id"].(string)
		if !ok || id == "" {
			// No cursor to continue from; stop rather than loop forever.
			return items, nil
		}
		cursor = id
	}
}
