package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// TokenCookieName is the cookie the credential is read from. The token is
// minted by the external identity issuer as an httpOnly cookie; this
// pipeline only verifies it.
const TokenCookieName = "access_token"

// maxTokenSize is the maximum accepted size for a token string (8 KB).
// Larger inputs are rejected before parsing to prevent resource exhaustion.
const maxTokenSize = 8192

// DefaultSigningAlgorithm is the signing algorithm assumed when the
// configuration does not name one.
const DefaultSigningAlgorithm = "HS256"

// ---------------------------------------------------------------------------
// Secret type — prevents accidental logging of the signing key
// ---------------------------------------------------------------------------

// Secret is a string type that redacts its value in String(), GoString(),
// and MarshalText() so the signing key cannot leak into logs, JSON output,
// or fmt.Printf. The actual value is only accessible via [Secret.Value].
type Secret string

// secretRedacted is the placeholder shown instead of the actual value.
const secretRedacted = "[REDACTED]"

// String returns the redacted placeholder.
func (s Secret) String() string { return secretRedacted }

// GoString returns the redacted placeholder for %#v formatting.
func (s Secret) GoString() string { return secretRedacted }

// MarshalText implements encoding.TextMarshaler, returning the redacted
// placeholder so the secret never appears in serialized configuration.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// Value returns the actual secret string. Call only where the raw value is
// truly needed (passing to the verification function).
func (s Secret) Value() string { return string(s) }

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// ExtractToken reads the credential from the request's access_token cookie.
// Absence yields a missing_token rejection (401) naming the expected cookie.
func ExtractToken(r *http.Request) (string, *autherr.Error) {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", autherr.Newf(autherr.CodeMissingToken,
			"%s cookie required", TokenCookieName)
	}
	return cookie.Value, nil
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// TokenDecoder verifies and decodes credential tokens. Verification is a
// pure, local, deterministic operation: failures are never transient and
// are never retried.
//
// TokenDecoder is safe for concurrent use by multiple goroutines.
type TokenDecoder struct {
	secret    Secret
	algorithm string
}

// NewTokenDecoder creates a decoder for tokens signed with the given secret
// and algorithm. An empty algorithm defaults to [DefaultSigningAlgorithm].
func NewTokenDecoder(secret Secret, algorithm string) *TokenDecoder {
	if algorithm == "" {
		algorithm = DefaultSigningAlgorithm
	}
	return &TokenDecoder{secret: secret, algorithm: algorithm}
}

// Decode verifies the token's signature and expiry and returns its claims.
//
// Failure classification:
//   - expired signature → token_expired (401)
//   - anything else (empty, oversized, malformed, tampered signature,
//     wrong algorithm) → invalid_token (401)
//
// jwt.WithValidMethods pins the accepted algorithm to the configured one,
// which also rejects alg:none and prevents algorithm confusion attacks
// where an attacker presents a token signed under a different scheme.
func (d *TokenDecoder) Decode(tokenStr string) (jwt.MapClaims, *autherr.Error) {
	if tokenStr == "" {
		return nil, autherr.New(autherr.CodeInvalidToken, "token must not be empty")
	}
	if len(tokenStr) > maxTokenSize {
		return nil, autherr.New(autherr.CodeInvalidToken, "token exceeds maximum size")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		return []byte(d.secret.Value()), nil
	}, jwt.WithValidMethods([]string{d.algorithm}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.Wrap(err, autherr.CodeTokenExpired, "token has expired")
		}
		return nil, autherr.Wrap(err, autherr.CodeInvalidToken, "token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, autherr.New(autherr.CodeInvalidToken, "token is invalid")
	}
	return claims, nil
}
