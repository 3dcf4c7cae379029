package policy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/waterfall-project/authcore/pkg/auth"
)

// RequireAccess returns a route-level middleware that asks the policy
// collaborator whether the authenticated caller may perform the operation
// on the service's resource. It must run after the guard middleware: a
// request with no user context is malformed wiring, answered with 400.
//
// Example:
//
//	mux.Handle("/api/v1/projects",
//	    policy.RequireAccess(client, "waterfall", "project", policy.OperationList)(listProjects))
func RequireAccess(client *Client, service, resource string, op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, ok := auth.UserContextFromContext(r.Context())
			if !ok {
				slog.WarnContext(r.Context(), "policy: access check without user context",
					"path", r.URL.Path,
				)
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":   "access_check_failed",
					"message": "Access check failed",
				})
				return
			}

			decision := client.CheckAccess(r.Context(), uc.UserID, uc.CompanyID, service, resource, op, nil)
			if !decision.Granted {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error":   "access_denied",
					"reason":  decision.Reason,
					"message": decision.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
