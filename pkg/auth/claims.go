package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// Claim keys recognized in the token payload. user_id and company_id are
// mandatory; the rest are optional.
const (
	ClaimUserID    = "user_id"
	ClaimCompanyID = "company_id"
	ClaimEmail     = "email"
	ClaimRoles     = "roles"
)

// UserContext is the normalized, per-request identity and tenant context
// built from verified claims. It is created once per authenticated request
// and must be treated as immutable afterwards.
//
// A constructed UserContext always has non-nil UserID and CompanyID;
// construction is guarded by [ValidateClaims].
type UserContext struct {
	// UserID identifies the authenticated user.
	UserID uuid.UUID

	// CompanyID identifies the caller's tenant.
	CompanyID uuid.UUID

	// Email is the user's email address, empty when the claim is absent.
	Email string

	// Roles is the ordered role list from the token, empty (never nil)
	// when the claim is absent.
	Roles []string

	// TokenIssuedAt is the token's iat claim; zero when absent.
	TokenIssuedAt time.Time

	// TokenExpiresAt is the token's exp claim; zero when absent. The two
	// timestamps are independently optional.
	TokenExpiresAt time.Time
}

// ValidateClaims enforces the mandatory identity claims.
//
//   - user_id missing → invalid_token_payload (401): the request is
//     unauthenticated without an identity.
//   - company_id missing → company_claim_missing (403): the caller is
//     authenticated but belongs to no tenant, an authorization defect.
//
// A claim that is present but not parseable as a UUID is treated exactly
// as missing; a malformed identifier proves nothing about the caller.
func ValidateClaims(claims jwt.MapClaims) *autherr.Error {
	if _, ok := claimUUID(claims, ClaimUserID); !ok {
		return autherr.New(autherr.CodeInvalidClaims, "user_id missing in token")
	}
	if _, ok := claimUUID(claims, ClaimCompanyID); !ok {
		return autherr.New(autherr.CodeTenantMissing,
			"company_id missing in token (multi-tenancy required)")
	}
	return nil
}

// NewUserContext builds the per-request UserContext from claims that have
// passed [ValidateClaims]. It is total over validated claims: every
// optional claim independently falls back to its zero value.
func NewUserContext(claims jwt.MapClaims) *UserContext {
	userID, _ := claimUUID(claims, ClaimUserID)
	companyID, _ := claimUUID(claims, ClaimCompanyID)

	uc := &UserContext{
		UserID:    userID,
		CompanyID: companyID,
		Roles:     []string{},
	}

	if email, ok := claims[ClaimEmail].(string); ok {
		uc.Email = email
	}
	if raw, ok := claims[ClaimRoles].([]any); ok {
		for _, entry := range raw {
			if role, ok := entry.(string); ok {
				uc.Roles = append(uc.Roles, role)
			}
		}
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		uc.TokenIssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		uc.TokenExpiresAt = exp.Time
	}

	return uc
}

// claimUUID extracts and parses a UUID claim. Returns false when the claim
// is absent, not a string, or not a valid UUID.
func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, bool) {
	s, ok := claims[key].(string)
	if !ok || s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
