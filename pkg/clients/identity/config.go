// Package identity provides the HTTP client for the identity collaborator:
// user profile lookup, tenant hierarchy retrieval, and the top-down tenant
// access rule built on both.
//
// # Tenant Hierarchy Access
//
// Tenants form a tree. A user may act within their own tenant, or within any
// tenant whose ancestor path contains the user's tenant (parents reach down
// into descendants, never the reverse). [Client.ValidateCompanyAccess]
// implements this rule and fails closed: any inability to prove the
// relationship — user lookup failure, hierarchy unavailable — is a denial.
//
// # Configuration
//
// Create a client using [NewClient] with a [Config]:
//
//	cfg := identity.DefaultConfig()
//	cfg.BaseURL = "http://identity.platform.svc.cluster.local:8080"
//	client, err := identity.NewClient(*cfg)
//
// For testing, inject a mock transport via [Config.HTTPClient].
package identity

import (
	"net/http"
	"time"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// DefaultTimeout is the per-call budget for identity lookups. Calls that
// exceed it are abandoned and treated as failures by the access rule.
const DefaultTimeout = 5 * time.Second

// HTTPClient is the subset of [http.Client] the identity client needs.
// Satisfied by *http.Client; tests inject a fake.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the identity collaborator connection settings.
type Config struct {
	// BaseURL is the identity collaborator's base URL, without a trailing
	// slash. Required.
	// Environment variable: IDENTITY_SERVICE_URL
	BaseURL string `json:"base_url" env:"IDENTITY_SERVICE_URL" yaml:"base_url"`

	// Timeout is the per-call budget for identity lookups.
	// Default: 5s
	// Environment variable: EXTERNAL_SERVICES_TIMEOUT
	Timeout time.Duration `json:"timeout,omitempty" env:"EXTERNAL_SERVICES_TIMEOUT" yaml:"timeout"`

	// HTTPClient is the HTTP client used for requests. When nil, a client
	// with a cookie-forwarding transport is used so the caller's session
	// accompanies every lookup.
	HTTPClient HTTPClient `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with default values. BaseURL must be set
// by the caller before use.
func DefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration and applies defaults for zero-valued
// fields.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return autherr.New(autherr.CodeConfigInvalid, "identity: base URL is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
