package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// stubAccess returns a fixed decision and records the identifiers it was
// asked about.
type stubAccess struct {
	decision AccessDecision
	calls    int

	gotUserID    uuid.UUID
	gotCompanyID uuid.UUID
}

func (s *stubAccess) ValidateCompanyAccess(_ context.Context, userID, companyID uuid.UUID) AccessDecision {
	s.calls++
	s.gotUserID = userID
	s.gotCompanyID = companyID
	return s.decision
}

func guardTestConfig() Config {
	cfg := DefaultConfig()
	cfg.SigningSecret = testSecret
	return cfg
}

func guardTestRequest(t *testing.T, claims jwt.MapClaims) *http.Request {
	t.Helper()
	r := httptest.NewRequest("GET", "/api/v1/projects", nil)
	r.AddCookie(&http.Cookie{
		Name:  TokenCookieName,
		Value: mintHS256(t, testSecret, claims),
	})
	return r
}

func validTestClaims() jwt.MapClaims {
	return jwt.MapClaims{
		ClaimUserID:    testUserID,
		ClaimCompanyID: testCompanyID,
		"exp":          time.Now().Add(time.Hour).Unix(),
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewGuard_RequiresSecretWhenEnabled(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	_, err := NewGuard(cfg, nil)
	require.Error(t, err)
	structured, ok := autherr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, autherr.CodeConfigInvalid, structured.Code)
}

func TestNewGuard_RejectsMalformedMockIDs(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.IdentityEnabled = false
	cfg.MockUserID = "not-a-uuid"

	_, err := NewGuard(cfg, nil)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Mock mode
// ---------------------------------------------------------------------------

func TestGuard_Check_MockMode_NoCredentialNeeded(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.IdentityEnabled = false
	access := &stubAccess{decision: Deny(ReasonUserNotFound, "must not be called")}

	guard, err := NewGuard(cfg, access)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/projects", nil) // no cookie
	uc, rejection := guard.Check(r)
	require.Nil(t, rejection)

	assert.Equal(t, "00000000-0000-0000-0000-000000000001", uc.UserID.String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", uc.CompanyID.String())
	assert.Zero(t, access.calls, "mock mode must not contact the identity collaborator")
}

func TestGuard_Check_MockMode_CustomIdentifiers(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.IdentityEnabled = false
	cfg.MockUserID = testUserID
	cfg.MockCompanyID = testCompanyID

	guard, err := NewGuard(cfg, nil)
	require.NoError(t, err)

	uc, rejection := guard.Check(httptest.NewRequest("GET", "/", nil))
	require.Nil(t, rejection)
	assert.Equal(t, testUserID, uc.UserID.String())
	assert.Equal(t, testCompanyID, uc.CompanyID.String())
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func TestGuard_Check_HappyPath(t *testing.T) {
	t.Parallel()
	access := &stubAccess{decision: Grant("", "same company access")}
	guard, err := NewGuard(guardTestConfig(), access)
	require.NoError(t, err)

	uc, rejection := guard.Check(guardTestRequest(t, validTestClaims()))
	require.Nil(t, rejection)

	assert.Equal(t, testUserID, uc.UserID.String())
	assert.Equal(t, 1, access.calls)
	assert.Equal(t, uc.UserID, access.gotUserID)
	assert.Equal(t, uc.CompanyID, access.gotCompanyID,
		"hierarchy check must target the token's own company claim")
}

func TestGuard_Check_MissingCookie(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	_, rejection := guard.Check(httptest.NewRequest("GET", "/", nil))
	require.NotNil(t, rejection)
	assert.Equal(t, autherr.CodeMissingToken, rejection.Code)
}

func TestGuard_Check_ExpiredToken(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	claims := validTestClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	_, rejection := guard.Check(guardTestRequest(t, claims))
	require.NotNil(t, rejection)
	assert.Equal(t, autherr.CodeTokenExpired, rejection.Code)
}

func TestGuard_Check_MissingCompanyClaim(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	claims := validTestClaims()
	delete(claims, ClaimCompanyID)

	_, rejection := guard.Check(guardTestRequest(t, claims))
	require.NotNil(t, rejection)
	assert.Equal(t, autherr.CodeTenantMissing, rejection.Code)
	assert.Equal(t, 403, rejection.HTTPStatus())
}

func TestGuard_Check_AccessDenied(t *testing.T) {
	t.Parallel()
	access := &stubAccess{decision: Deny(ReasonUserInactive, "user account is inactive")}
	guard, err := NewGuard(guardTestConfig(), access)
	require.NoError(t, err)

	_, rejection := guard.Check(guardTestRequest(t, validTestClaims()))
	require.NotNil(t, rejection)
	assert.Equal(t, autherr.CodeAccessDenied, rejection.Code)
	assert.Equal(t, 403, rejection.HTTPStatus())
	assert.Equal(t, ReasonUserInactive, rejection.Details["reason"])
	assert.Equal(t, "user account is inactive", rejection.Message)
}

func TestGuard_Check_NilAccessValidatorSkipsHierarchyCheck(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	uc, rejection := guard.Check(guardTestRequest(t, validTestClaims()))
	require.Nil(t, rejection)
	assert.Equal(t, testCompanyID, uc.CompanyID.String())
}

// Checking the same request twice yields the same outcome with no
// accumulated state beyond the repeated collaborator call.
func TestGuard_Check_Idempotent(t *testing.T) {
	t.Parallel()
	access := &stubAccess{decision: Grant("", "same company access")}
	guard, err := NewGuard(guardTestConfig(), access)
	require.NoError(t, err)

	r := guardTestRequest(t, validTestClaims())
	first, rej1 := guard.Check(r)
	second, rej2 := guard.Check(r)

	require.Nil(t, rej1)
	require.Nil(t, rej2)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, access.calls)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestGuard_Middleware_AttachesUserContextAndCookies(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	var gotUC *UserContext
	var gotCookies []*http.Cookie
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUC, _ = UserContextFromContext(r.Context())
		gotCookies, _ = RequestCookiesFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, guardTestRequest(t, validTestClaims()))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUC)
	assert.Equal(t, testUserID, gotUC.UserID.String())
	require.Len(t, gotCookies, 1)
	assert.Equal(t, TokenCookieName, gotCookies[0].Name)
}

func TestGuard_Middleware_RejectionBody(t *testing.T) {
	t.Parallel()
	guard, err := NewGuard(guardTestConfig(), nil)
	require.NoError(t, err)

	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	}))

	r := httptest.NewRequest("DELETE", "/api/v1/projects/42", nil)
	r.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error   string         `json:"error"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_token", body.Error)
	assert.Equal(t, "/api/v1/projects/42", body.Details["path"])
	assert.Equal(t, "DELETE", body.Details["method"])
	assert.Equal(t, "req-123", body.Details["request_id"])
}

func TestGuard_Middleware_DenialCarriesReason(t *testing.T) {
	t.Parallel()
	access := &stubAccess{decision: Deny(ReasonInsufficientPermissions,
		"user company is not in the target company's hierarchy")}
	guard, err := NewGuard(guardTestConfig(), access)
	require.NoError(t, err)

	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, guardTestRequest(t, validTestClaims()))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access_denied", body["error"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ReasonInsufficientPermissions, details["reason"])
}
