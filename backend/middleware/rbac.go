// ABOUTME: Role-based access control middleware for API endpoints
// ABOUTME: Gates endpoints by the role recorded in the session user snapshot

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// roleHierarchy defines the privilege level for each role.
// Higher value means more privilege. Unknown caller roles resolve to 0,
// which denies access to any protected endpoint (fail-closed).
var roleHierarchy = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// RequireRole returns middleware that enforces a minimum role.
// Panics if requiredRole is not in the role hierarchy (catches config errors at startup).
// Must run after Auth; requests without a session are denied.
// Returns 403 Forbidden if the caller's role is insufficient.
func RequireRole(requiredRole string) func(http.HandlerFunc) http.HandlerFunc {
	requiredLevel, ok := roleHierarchy[requiredRole]
	if !ok {
		panic(fmt.Sprintf("RequireRole: unknown role %q; valid roles: %v", requiredRole, []string{RoleUser, RoleAdmin}))
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			callerRole := ""
			username := ""
			if session := GetSession(r); session != nil {
				callerRole = session.User.Role
				username = session.User.Username
			}

			callerLevel := roleHierarchy[callerRole]
			if callerLevel < requiredLevel {
				slog.Warn("RBAC authorization denied",
					"path", r.URL.Path,
					"method", r.Method,
					"required_role", requiredRole,
					"user_role", callerRole,
					"username", username,
				)
				writeJSONError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next(w, r)
		}
	}
}
