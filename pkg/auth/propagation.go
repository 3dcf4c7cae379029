package auth

import (
	"net/http"
)

// ForwardingRoundTripper wraps an [http.RoundTripper] to forward the
// caller's session cookies to outgoing HTTP requests. It reads the cookies
// stored in the request context by the guard middleware (see
// [ContextWithRequestCookies]) and attaches them to the outgoing request,
// so downstream collaborators can enforce session validity themselves.
//
// Example:
//
//	client := &http.Client{
//	    Transport: auth.NewForwardingRoundTripper(http.DefaultTransport),
//	}
//	// Requests made with req.WithContext(ctx) carry the caller's cookies.
type ForwardingRoundTripper struct {
	wrapped http.RoundTripper
}

// NewForwardingRoundTripper creates a ForwardingRoundTripper wrapping the
// given transport. If transport is nil, [http.DefaultTransport] is used.
func NewForwardingRoundTripper(transport http.RoundTripper) *ForwardingRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &ForwardingRoundTripper{wrapped: transport}
}

// RoundTrip executes the request with the caller's cookies attached. If no
// cookies are stored in the context, the request proceeds unmodified.
// Cookies already present on the outgoing request are never overridden.
//
// RoundTrip implements the [http.RoundTripper] interface.
func (t *ForwardingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	cookies, ok := RequestCookiesFromContext(r.Context())
	if !ok || len(cookies) == 0 {
		return t.wrapped.RoundTrip(r)
	}

	present := make(map[string]struct{})
	for _, c := range r.Cookies() {
		present[c.Name] = struct{}{}
	}

	// Clone to avoid mutating the caller's request.
	clone := r.Clone(r.Context())
	for _, c := range cookies {
		if _, exists := present[c.Name]; exists {
			continue
		}
		clone.AddCookie(c)
	}

	return t.wrapped.RoundTrip(clone)
}
