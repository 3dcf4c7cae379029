// Package policy provides the HTTP client for the policy collaborator:
// fine-grained permission checks and permission listing, plus the
// [RequireAccess] middleware that gates individual routes.
//
// # Degradation Semantics
//
// The two operations degrade differently on failure. Permission checks fail
// closed: a timeout or error from the collaborator is a denial, because a
// wrong grant is worse than a wrong denial. Permission listings degrade to
// an empty list: a listing is advisory (used to shape UI), and an empty
// list wrongly hides capabilities rather than wrongly granting them.
//
// A disabled collaborator is different from an unreachable one: when
// [Config.Enabled] is false every check is an administrative allow, and the
// decision's reason says so.
package policy

import (
	"net/http"
	"time"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// DefaultTimeout is the per-call budget for policy checks.
const DefaultTimeout = 5 * time.Second

// HTTPClient is the subset of [http.Client] the policy client needs.
// Satisfied by *http.Client; tests inject a fake.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the policy collaborator connection settings.
type Config struct {
	// BaseURL is the policy collaborator's base URL, without a trailing
	// slash. Required when Enabled is true.
	// Environment variable: POLICY_SERVICE_URL
	BaseURL string `json:"base_url" env:"POLICY_SERVICE_URL" yaml:"base_url"`

	// Enabled toggles policy enforcement. When false every check is an
	// administrative allow and the collaborator is never contacted.
	// Environment variable: USE_POLICY_SERVICE
	Enabled bool `json:"enabled" env:"USE_POLICY_SERVICE" yaml:"enabled"`

	// Timeout is the per-call budget for policy checks.
	// Default: 5s
	// Environment variable: EXTERNAL_SERVICES_TIMEOUT
	Timeout time.Duration `json:"timeout,omitempty" env:"EXTERNAL_SERVICES_TIMEOUT" yaml:"timeout"`

	// HTTPClient is the HTTP client used for requests. When nil, a client
	// with a cookie-forwarding transport is used.
	HTTPClient HTTPClient `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with default values. Enforcement is off
// until BaseURL and Enabled are set.
func DefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration and applies defaults for zero-valued
// fields.
func (c *Config) Validate() error {
	if c.Enabled && c.BaseURL == "" {
		return autherr.New(autherr.CodeConfigInvalid,
			"policy: base URL is required when enforcement is enabled")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
