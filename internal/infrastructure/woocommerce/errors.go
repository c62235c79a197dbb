package woocommerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Config validation errors
var (
	ErrConfigMissingBaseURL = errors.New("woocommerce: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("woocommerce: base URL is not a valid URL")
)

// duplicateCodes are the error codes wc/v3 emits when a resource with the
// same identity already exists. Matched structurally, never by message text.
var duplicateCodes = map[string]bool{
	"woocommerce_rest_product_sku_already_exists": true,
	"woocommerce_rest_duplicate_sku":              true,
	"term_exists":                                 true,
}

// APIError carries the remote HTTP status and body for any non-2xx response
// or transport failure. Transport failures have StatusCode 0.
type APIError struct {
	Resource   string
	StatusCode int
	Body       []byte
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("woocommerce: %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("woocommerce: %s: HTTP %d: %s", e.Resource, e.StatusCode, truncate(e.Body, 200))
}

// Unwrap exposes the transport error, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether the response is the store's "already exists"
// signal: a known duplicate error code in the body, or a bare 409.
func (e *APIError) IsConflict() bool {
	if e.StatusCode == http.StatusConflict {
		return true
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return false
	}
	return duplicateCodes[body.Code]
}

// IsConflict reports whether err is a remote duplicate/"already exists"
// signal.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsConflict()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
