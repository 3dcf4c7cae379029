package errors

import "net/http"

// Code is a stable, machine-readable error code. Codes are surfaced verbatim
// in rejection bodies (the "error" field) so API clients and operators can
// distinguish authentication failures from authorization failures from
// upstream unavailability without parsing human-readable messages.
//
// Codes are snake_case, never change once assigned, and each maps to exactly
// one HTTP status via [Code.HTTPStatus].
type Code string

const (
	// CodeMissingToken indicates the request carried no credential cookie.
	CodeMissingToken Code = "missing_token"

	// CodeTokenExpired indicates the credential's signature verified but
	// its expiry is in the past.
	CodeTokenExpired Code = "token_expired"

	// CodeInvalidToken indicates any other credential defect: malformed
	// token, tampered signature, wrong signing algorithm, oversized input.
	CodeInvalidToken Code = "invalid_token"

	// CodeInvalidClaims indicates the token verified but its payload lacks
	// the user identity claim. Without a user_id there is no identity to
	// authorize, so the request counts as unauthenticated.
	CodeInvalidClaims Code = "invalid_token_payload"

	// CodeTenantMissing indicates the token verified and carries an
	// identity, but no tenant (company_id) claim. This is deliberately a
	// 403, not a 401: the caller is authenticated, yet cannot be placed
	// inside any tenant boundary.
	CodeTenantMissing Code = "company_claim_missing"

	// CodeAccessDenied indicates a cross-tenant or policy denial for an
	// authenticated caller.
	CodeAccessDenied Code = "access_denied"

	// CodeConfigInvalid indicates the pipeline was constructed with an
	// unusable configuration (missing signing secret, malformed mock
	// identifiers, missing collaborator URL).
	CodeConfigInvalid Code = "config_invalid"

	// CodeInternal indicates an unexpected failure inside the pipeline.
	CodeInternal Code = "internal_error"
)

// String returns the code as a plain string.
func (c Code) String() string {
	return string(c)
}

// HTTPStatus returns the HTTP status that rejections carrying this code
// are emitted with.
//
// Note the asymmetry between [CodeInvalidClaims] (401) and
// [CodeTenantMissing] (403): a missing identity means the request is
// unauthenticated, while a missing tenant means an authenticated caller
// that no tenant boundary admits.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeMissingToken, CodeTokenExpired, CodeInvalidToken, CodeInvalidClaims:
		return http.StatusUnauthorized
	case CodeTenantMissing, CodeAccessDenied:
		return http.StatusForbidden
	case CodeConfigInvalid, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
