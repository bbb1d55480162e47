package vnpay

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// =====================================================
// VNPAY CONFIGURATION
// =====================================================

type Config struct {
	APIURL     string        // API base, e.g. https://api.vnpay.com/v1
	APIVersion string        // pinned API version, sent on every request
	Timeout    time.Duration // HTTP client timeout
}

// NewConfig creates the client configuration
func NewConfig(apiURL, apiVersion string, timeout time.Duration) *Config {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Config{
		APIURL:     strings.TrimRight(apiURL, "/"),
		APIVersion: apiVersion,
		Timeout:    timeout,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("vnpay APIURL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("vnpay APIURL must be an absolute URL: %q", c.APIURL)
	}
	if c.APIVersion == "" {
		return fmt.Errorf("vnpay APIVersion is required")
	}
	return nil
}

// Endpoint returns the full URL for an API path like "/charges"
func (c *Config) Endpoint(path string) string {
	return c.APIURL + path
}

// =====================================================
// VNPAY CONSTANTS
// =====================================================

const (
	DefaultAPIVersion = "2016-03-07"
	DefaultTimeout    = 30 * time.Second

	HeaderAPIVersion = "Vnpay-Version"

	PathCharges   = "/charges"
	PathRefunds   = "/refunds"
	PathTokens    = "/tokens"
	PathCustomers = "/customers"
)
