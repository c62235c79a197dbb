package woocommerce

import "net/url"

// Default connection settings
const (
	DefaultTimeoutSeconds = 5
	DefaultPerPage        = 100
	apiPathPrefix         = "/wp-json/wc/v3"
)

// Config holds the connection settings for one WooCommerce store.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	TimeoutSeconds int
	PerPage        int
}

// NewConfig creates a config with defaults applied.
func NewConfig(baseURL, consumerKey, consumerSecret string) *Config {
	return &Config{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		TimeoutSeconds: DefaultTimeoutSeconds,
		PerPage:        DefaultPerPage,
	}
}

// Validate checks the config and fills defaults for optional fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.PerPage <= 0 {
		c.PerPage = DefaultPerPage
	}
	return nil
}
