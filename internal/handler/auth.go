package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/config"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/queue"
	"github.com/meshly/asset-marketplace/internal/repository"
	"github.com/meshly/asset-marketplace/internal/utils"
)

// MailPublisher is the narrow outbound-mail interface the auth handler
// depends on; the RabbitMQ publisher implements it.
type MailPublisher interface {
	PublishEmailRequested(ctx context.Context, event queue.EmailRequested) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Mail  MailPublisher
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, mail MailPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mail: mail}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Photo           string `json:"photo"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type resetReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
type updatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// sendSessionToken issues the signed session token for a user, sets it as
// the jwt cookie and writes the auth envelope. The password hash never
// leaves the server.
func (h *AuthHandler) sendSessionToken(c echo.Context, u *model.User, status int) error {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID.Hex(), h.Cfg.JWTTTLMin)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Expires:  tok.Exp,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	u.Password = "" // belt and braces on top of the json:"-" tag
	return c.JSON(status, echo.Map{
		"status": "success",
		"token":  tok.Token,
		"data":   echo.Map{"user": u},
	})
}

// Signup creates an account and logs the new user straight in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	user := model.User{
		Name:            strings.TrimSpace(req.Name),
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Photo:           req.Photo,
		Role:            model.RoleUser, // roles are never client-assignable
	}

	if err := h.Users.CreateUser(c.Request().Context(), &user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperror.BadRequest("Duplicate Field Error! %s is not a unique value for the property: email", user.Email)
		}
		return err
	}
	return h.sendSessionToken(c, &user, http.StatusCreated)
}

// Login verifies credentials and issues a fresh session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.BadRequest("email and password must be entered!")
	}

	user, err := h.Users.FindByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Unauthorized("Incorrect email or password!")
	}
	if err != nil {
		return err
	}
	if !model.CheckPassword(user.Password, req.Password) {
		return apperror.Unauthorized("Incorrect email or password!")
	}
	return h.sendSessionToken(c, user, http.StatusOK)
}

// Logout invalidates the session client-side by overwriting the cookie with
// a near-immediately-expiring placeholder. There is no server-side
// revocation list; password-change timestamps cover that case.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

// IsLoggedIn probes the jwt cookie without ever failing the request; the
// frontend uses it to decide what to render.
func (h *AuthHandler) IsLoggedIn(c echo.Context) error {
	anonymous := echo.Map{"loggedIn": false}

	cookie, err := c.Cookie(middleware.SessionCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusOK, anonymous)
	}
	claims, err := utils.ParseSessionToken(h.Cfg.JWTSecret, cookie.Value)
	if err != nil {
		return c.JSON(http.StatusOK, anonymous)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusOK, anonymous)
	}
	user, err := h.Users.FindByID(c.Request().Context(), id, false, false)
	if err != nil || model.PasswordChangedAfter(user, claims.IssuedAt) {
		return c.JSON(http.StatusOK, anonymous)
	}
	return c.JSON(http.StatusOK, echo.Map{"loggedIn": true, "currentUser": user})
}

// ForgotPassword generates the short-lived reset token, stores only its
// hash and mails the plaintext token out-of-band through the broker.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	ctx := c.Request().Context()
	user, err := h.Users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("The email address provided is not valid!")
	}
	if err != nil {
		return err
	}

	raw, hash, expires, err := model.NewResetToken()
	if err != nil {
		return err
	}
	if err := h.Users.SetResetToken(ctx, user.ID, hash, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s",
		c.Scheme(), c.Request().Host, raw)
	body := fmt.Sprintf("Submit a PATCH request with your new password and passwordConfirm to %s to reset your password.\nIf you didn't forget your password, please ignore this email", resetURL)

	err = h.Mail.PublishEmailRequested(ctx, queue.EmailRequested{
		To:          user.Email,
		Subject:     "Password reset token valid for 10 minutes",
		Body:        body,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// The token must not stay redeemable if the user never receives it.
		_ = h.Users.ClearResetToken(ctx, user.ID)
		return apperror.Internal("There was a problem sending the email! Try again later")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "token sent to email",
	})
}

// ResetPassword redeems a reset token from the mail link and rotates the
// password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	hash := model.HashResetToken(c.Param("token"))

	ctx := c.Request().Context()
	user, err := h.Users.FindByResetToken(ctx, hash, time.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.BadRequest("Token is invalid or has expired! Try resetting your password again.")
	}
	if err != nil {
		return err
	}

	var req resetReq
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if err := h.rotatePassword(ctx, user, req.Password, req.PasswordConfirm); err != nil {
		return err
	}
	return h.sendSessionToken(c, user, http.StatusOK)
}

// UpdatePassword lets a logged-in user change their password after
// re-proving the current one.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if !model.CheckPassword(user.Password, req.PasswordCurrent) {
		return apperror.Unauthorized("The current password provided is not correct")
	}
	if err := h.rotatePassword(c.Request().Context(), user, req.Password, req.PasswordConfirm); err != nil {
		return err
	}
	return h.sendSessionToken(c, user, http.StatusOK)
}

// rotatePassword validates the new credential pair, hashes it and persists
// the rotation (which also stamps passwordChangedAt, invalidating every
// previously issued token).
func (h *AuthHandler) rotatePassword(ctx context.Context, user *model.User, password, confirm string) error {
	if len(password) < 8 {
		return apperror.BadRequest("Password must be at least 8 characters long")
	}
	if password != confirm {
		return apperror.BadRequest("Passwords must match")
	}
	user.Password = password
	if err := user.HashPassword(h.Cfg.BcryptCost); err != nil {
		return err
	}
	return h.Users.SavePassword(ctx, user)
}
