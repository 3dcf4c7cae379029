package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testCompanyID = "22222222-2222-2222-2222-222222222222"
)

// ---------------------------------------------------------------------------
// Claims validation
// ---------------------------------------------------------------------------

func TestValidateClaims_Valid(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: testCompanyID,
	})
	assert.Nil(t, err)
}

func TestValidateClaims_MissingUserID(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{
		ClaimCompanyID: testCompanyID,
	})
	require.NotNil(t, err)
	assert.Equal(t, autherr.CodeInvalidClaims, err.Code)
	assert.Equal(t, 401, err.HTTPStatus())
	assert.Contains(t, err.Message, "user_id missing")
}

func TestValidateClaims_MissingCompanyID(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{
		ClaimUserID: testUserID,
	})
	require.NotNil(t, err)
	assert.Equal(t, autherr.CodeTenantMissing, err.Code)
	assert.Equal(t, 403, err.HTTPStatus())
	assert.Contains(t, err.Message, "company_id missing")
}

// A malformed identifier is treated exactly as a missing one.
func TestValidateClaims_MalformedUserID(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{
		ClaimUserID:    "not-a-uuid",
		ClaimCompanyID: testCompanyID,
	})
	require.NotNil(t, err)
	assert.Equal(t, autherr.CodeInvalidClaims, err.Code)
}

func TestValidateClaims_MalformedCompanyID(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: 12345, // not even a string
	})
	require.NotNil(t, err)
	assert.Equal(t, autherr.CodeTenantMissing, err.Code)
}

// user_id is checked before company_id: a token missing both is an
// authentication failure, not an authorization one.
func TestValidateClaims_MissingBoth_ReportsUserIDFirst(t *testing.T) {
	t.Parallel()
	err := ValidateClaims(jwt.MapClaims{})
	require.NotNil(t, err)
	assert.Equal(t, autherr.CodeInvalidClaims, err.Code)
}

// ---------------------------------------------------------------------------
// UserContext construction
// ---------------------------------------------------------------------------

func TestNewUserContext_FullClaims(t *testing.T) {
	t.Parallel()
	now := time.Now().Truncate(time.Second)
	uc := NewUserContext(jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: testCompanyID,
		ClaimEmail:     "dev@example.com",
		ClaimRoles:     []any{"admin", "editor"},
		"iat":          float64(now.Unix()),
		"exp":          float64(now.Add(time.Hour).Unix()),
	})

	assert.Equal(t, testUserID, uc.UserID.String())
	assert.Equal(t, testCompanyID, uc.CompanyID.String())
	assert.Equal(t, "dev@example.com", uc.Email)
	assert.Equal(t, []string{"admin", "editor"}, uc.Roles)
	assert.Equal(t, now.Unix(), uc.TokenIssuedAt.Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), uc.TokenExpiresAt.Unix())
}

func TestNewUserContext_MinimalClaims(t *testing.T) {
	t.Parallel()
	uc := NewUserContext(jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: testCompanyID,
	})

	assert.Empty(t, uc.Email)
	assert.NotNil(t, uc.Roles)
	assert.Empty(t, uc.Roles)
	assert.True(t, uc.TokenIssuedAt.IsZero())
	assert.True(t, uc.TokenExpiresAt.IsZero())
}

// Non-string entries in the roles claim are skipped rather than failing
// the whole construction.
func TestNewUserContext_MixedRoles(t *testing.T) {
	t.Parallel()
	uc := NewUserContext(jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: testCompanyID,
		ClaimRoles:     []any{"admin", 42, "viewer"},
	})
	assert.Equal(t, []string{"admin", "viewer"}, uc.Roles)
}
