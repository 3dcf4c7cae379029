package auth

import (
	"github.com/google/uuid"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// Config holds the authorization pipeline settings.
type Config struct {
	// SigningSecret is the shared key tokens are verified against.
	// Required when IdentityEnabled is true.
	SigningSecret Secret `env:"JWT_SECRET_KEY" yaml:"signing_secret" json:"signing_secret"`

	// SigningAlgorithm names the accepted signing algorithm. Defaults to
	// HS256.
	SigningAlgorithm string `env:"JWT_ALGORITHM" yaml:"signing_algorithm" json:"signing_algorithm"`

	// IdentityEnabled toggles real token verification. When false the
	// guard skips extraction and verification entirely and produces a
	// fixed mock identity; intended for local development only.
	IdentityEnabled bool `env:"USE_IDENTITY_SERVICE" yaml:"identity_enabled" json:"identity_enabled"`

	// MockUserID is the user identity produced in mock mode.
	MockUserID string `env:"MOCK_USER_ID" yaml:"mock_user_id" json:"mock_user_id"`

	// MockCompanyID is the tenant identity produced in mock mode.
	MockCompanyID string `env:"MOCK_COMPANY_ID" yaml:"mock_company_id" json:"mock_company_id"`

	// AuditLog enables debug logging of each authorization outcome.
	AuditLog bool `env:"LOG_AUTH_VALIDATION" yaml:"audit_log" json:"audit_log"`
}

// mockDefaultID is the fallback identity used in mock mode when no explicit
// mock identifiers are configured.
const mockDefaultID = "00000000-0000-0000-0000-000000000001"

// DefaultConfig returns a Config with sensible defaults. Real token
// verification is on; mock identifiers carry the shared development UUID.
func DefaultConfig() Config {
	return Config{
		SigningAlgorithm: DefaultSigningAlgorithm,
		IdentityEnabled:  true,
		MockUserID:       mockDefaultID,
		MockCompanyID:    mockDefaultID,
	}
}

// Validate checks the configuration and applies defaults for unset fields.
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.IdentityEnabled {
		if c.SigningSecret.Value() == "" {
			return autherr.New(autherr.CodeConfigInvalid,
				"signing secret is required when identity verification is enabled")
		}
		return nil
	}

	if _, err := uuid.Parse(c.MockUserID); err != nil {
		return autherr.Wrap(err, autherr.CodeConfigInvalid, "mock user id is not a valid UUID")
	}
	if _, err := uuid.Parse(c.MockCompanyID); err != nil {
		return autherr.Wrap(err, autherr.CodeConfigInvalid, "mock company id is not a valid UUID")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SigningAlgorithm == "" {
		c.SigningAlgorithm = DefaultSigningAlgorithm
	}
	if c.MockUserID == "" {
		c.MockUserID = mockDefaultID
	}
	if c.MockCompanyID == "" {
		c.MockCompanyID = mockDefaultID
	}
}
