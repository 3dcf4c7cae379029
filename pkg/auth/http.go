package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	autherr "github.com/waterfall-project/authcore/pkg/errors"
)

// HeaderRequestID is the inbound header echoed back in rejection bodies so
// callers can correlate a denial with their own request logs.
const HeaderRequestID = "X-Request-ID"

// Middleware wraps a handler with the authorization pipeline. Requests that
// pass have the [UserContext] and the inbound cookies attached to their
// context; rejected requests receive a JSON error body and never reach the
// next handler.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/projects", handleProjects)
//	http.ListenAndServe(":8080", guard.Middleware(mux))
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc, rejection := g.Check(r)
		if rejection != nil {
			slog.WarnContext(r.Context(), "auth: request rejected",
				"code", rejection.Code,
				"status", rejection.HTTPStatus(),
				"path", r.URL.Path,
				"method", r.Method,
			)
			WriteRejection(w, r, rejection)
			return
		}

		ctx := ContextWithUserContext(r.Context(), uc)
		ctx = ContextWithRequestCookies(ctx, r.Cookies())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rejectionBody is the JSON shape written for rejected requests.
type rejectionBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteRejection writes the rejection as a JSON response using the status
// mapped from the error code. The body names the stable code, the message,
// and request correlation details (path, method, request id when present).
func WriteRejection(w http.ResponseWriter, r *http.Request, rejection *autherr.Error) {
	details := map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
	}
	if id := r.Header.Get(HeaderRequestID); id != "" {
		details["request_id"] = id
	}
	for k, v := range rejection.Details {
		details[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rejection.HTTPStatus())
	_ = json.NewEncoder(w).Encode(rejectionBody{
		Error:   string(rejection.Code),
		Message: rejection.Message,
		Details: details,
	})
}
