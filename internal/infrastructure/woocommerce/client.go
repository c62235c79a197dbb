// Package woocommerce is a thin, stateless wrapper around the wc/v3 REST
// surface: paginated reads, exact-name search, create/update mutations and
// multipart media upload. Every non-2xx response surfaces as *APIError.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Client talks to one WooCommerce store. It holds no per-run state and is
// safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a client for the store described by config.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FetchPaged follows page/per_page pagination for resource until an empty
// page. The whole fetch aborts on the first failed page.
func (c *Client) FetchPaged(ctx context.Context, resource string) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(c.config.PerPage))

		body, err := c.doRequest(ctx, http.MethodGet, resource, query, nil)
		if err != nil {
			return nil, err
		}

		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("woocommerce: failed to parse %s page %d: %w", resource, page, err)
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}
}

// Search performs a ?search= query against resource.
func (c *Client) Search(ctx context.Context, resource, term string) ([]json.RawMessage, error) {
	query := url.Values{}
	query.Set("search", term)

	body, err := c.doRequest(ctx, http.MethodGet, resource, query, nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to parse %s search: %w", resource, err)
	}
	return items, nil
}

// Create POSTs body to resource and returns the created object.
func (c *Client) Create(ctx context.Context, resource string, payload any) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to marshal %s payload: %w", resource, err)
	}
	return c.doRequest(ctx, http.MethodPost, resource, nil, bytes.NewReader(bodyBytes))
}

// Update PUTs body to resource/{id} and returns the updated object.
func (c *Client) Update(ctx context.Context, resource string, id int64, payload any) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to marshal %s payload: %w", resource, err)
	}
	target := fmt.Sprintf("%s/%d", resource, id)
	return c.doRequest(ctx, http.MethodPut, target, nil, bytes.NewReader(bodyBytes))
}

// UploadFile POSTs the file at path to resource as a multipart upload.
func (c *Client) UploadFile(ctx context.Context, resource, path string) (json.RawMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to finalize upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, resource, nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filepath.Base(path)))

	return c.send(req, resource)
}

// doRequest performs a JSON request against resource and returns the body.
func (c *Client) doRequest(ctx context.Context, method, resource string, query url.Values, body io.Reader) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, resource, query, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, resource)
}

// newRequest builds an authenticated request for resource. Authentication is
// consumer key/secret query parameters, as wc/v3 expects over HTTPS.
func (c *Client) newRequest(ctx context.Context, method, resource string, query url.Values, body io.Reader) (*http.Request, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.config.ConsumerKey)
	query.Set("consumer_secret", c.config.ConsumerSecret)

	target := fmt.Sprintf("%s%s/%s?%s", c.config.BaseURL, apiPathPrefix, resource, query.Encode())
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send executes the request and maps any failure to *APIError.
func (c *Client) send(req *http.Request, resource string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &APIError{Resource: resource, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Resource: resource, StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}
