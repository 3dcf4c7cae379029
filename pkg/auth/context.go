package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// Using a distinct type prevents collisions with keys from other packages.
type contextKey int

const (
	// userContextKey stores the authenticated *UserContext.
	userContextKey contextKey = iota

	// requestCookiesKey stores the inbound request's cookies for
	// forwarding to downstream collaborators.
	requestCookiesKey
)

// ContextWithUserContext returns a new context with the given UserContext
// attached. It is called by the guard middleware after a successful
// authorization pass; protected handlers retrieve the value with
// [UserContextFromContext].
func ContextWithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from the context.
// Returns the context and true if present, or nil and false otherwise.
//
// Example:
//
//	uc, ok := auth.UserContextFromContext(ctx)
//	if !ok {
//	    return errors.New(errors.CodeInternal, "no user context")
//	}
//	query = query.Where("company_id = ?", uc.CompanyID)
func UserContextFromContext(ctx context.Context) (*UserContext, bool) {
	uc, ok := ctx.Value(userContextKey).(*UserContext)
	return uc, ok
}

// MustUserContextFromContext retrieves the UserContext, panicking when it
// is absent. Use only in code paths that run strictly after the guard
// middleware.
func MustUserContextFromContext(ctx context.Context) *UserContext {
	uc, ok := UserContextFromContext(ctx)
	if !ok {
		panic("auth: no user context in context; ensure the guard middleware is configured")
	}
	return uc
}

// ContextWithRequestCookies returns a new context carrying the inbound
// request's cookies. Downstream clients use [ForwardingRoundTripper] to
// attach them to outgoing requests as the caller's session proof.
func ContextWithRequestCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, requestCookiesKey, cookies)
}

// RequestCookiesFromContext retrieves the stored request cookies.
// Returns the cookies and true if present, or nil and false otherwise.
func RequestCookiesFromContext(ctx context.Context) ([]*http.Cookie, bool) {
	cookies, ok := ctx.Value(requestCookiesKey).([]*http.Cookie)
	return cookies, ok
}
