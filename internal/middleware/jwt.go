package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/repository"
	"github.com/meshly/asset-marketplace/internal/utils"
)

// userKey is the echo context key the authenticated account is stored under.
const userKey = "user"

// SessionCookie is the cookie name the session token travels in when the
// Authorization header is absent.
const SessionCookie = "jwt"

// UserLoader is the narrow slice of the user accessor the middleware needs
// to re-check that a token's subject still resolves to a live account.
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID, expand, includeHidden bool) (*model.User, error)
}

// Protect returns the authentication middleware guarding protected routes.
// The chain per request: extract token (bearer header wins over cookie),
// verify signature and expiry, re-check the account still exists, reject
// tokens issued before the last password change. Any failed step
// short-circuits to 401 through the error model.
func Protect(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return apperror.Unauthorized("You are not logged in! Login to get access")
			}

			claims, err := utils.ParseSessionToken(secret, token)
			if err != nil {
				return err // jwt errors normalize to 401 centrally
			}

			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return apperror.Unauthorized("Please login again! Invalid token subject")
			}

			user, err := users.FindByID(c.Request().Context(), id, false, false)
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.Unauthorized("The user corresponding to the token no longer exists")
			}
			if err != nil {
				return err
			}

			if model.PasswordChangedAfter(user, claims.IssuedAt) {
				return apperror.Unauthorized("Password changed after the token was issued")
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the account the auth middleware stored on the
// context, or nil on unprotected routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// extractToken prefers the Authorization bearer header over the jwt cookie.
func extractToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
