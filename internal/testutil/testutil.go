// Package testutil provides shared test helpers for the authorization
// pipeline packages.
//
// All helpers accept [testing.TB] for compatibility with both tests and
// benchmarks, and call t.Helper() so failure messages report the caller's
// file and line number rather than this package's.
package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// Fixture identifiers shared across package tests. The names describe the
// tenant tree they form: Root is the parent of Child, Sibling is unrelated.
var (
	UserID           = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	RootCompanyID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ChildCompanyID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	SiblingCompanyID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

// SigningSecret is the HS256 key test tokens are minted with.
const SigningSecret = "test-signing-secret"

// MintToken signs a token over the given claims with HS256 and the given
// secret. Tests add iat/exp themselves when expiry matters.
func MintToken(t testing.TB, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err, "mint token")
	return signed
}

// ValidClaims returns a claim set that passes validation: the fixture user
// and root company, with a one-hour expiry.
func ValidClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"user_id":    UserID.String(),
		"company_id": RootCompanyID.String(),
		"email":      "dev@example.com",
		"iat":        now.Unix(),
		"exp":        now.Add(time.Hour).Unix(),
	}
}

// RequireErrorCode halts the test if err is nil, is not a structured
// *autherr.Error, or does not carry the expected code.
func RequireErrorCode(t testing.TB, err error, code autherr.Code, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	structured, ok := autherr.AsError(err)
	require.True(t, ok, "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, code, structured.Code,
		"expected code %q, got %q (message: %s)", code, structured.Code, structured.Message)
}
