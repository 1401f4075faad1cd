package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/meshly/asset-marketplace/internal/apperror"
)

// RequireRole returns a middleware that enforces that the authenticated
// user carries one of the given roles. It must run after Protect, which is
// what stores the account on the context; valid credentials with an
// insufficient role are rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !allowed[user.Role] {
				return apperror.Forbidden("You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
