package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/repository"
)

// UserHandler carries the self-service account endpoints plus the
// admin-only account management built on the generic factory.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: users}
}

// SelfID rewrites the id route param to the authenticated user so the
// generic GetOne handler can serve /getMe.
func SelfID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return apperror.Unauthorized("You are not logged in! Log in to get access")
		}
		c.SetParamNames("id")
		c.SetParamValues(user.ID.Hex())
		return next(c)
	}
}

// UpdateMe changes the caller's profile fields. Only name, email and photo
// are accepted; password changes go through their own endpoint.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Photo           string `json:"photo"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return apperror.BadRequest("You cannot update password here, use /updateMyPassword to do so.")
	}

	me := middleware.CurrentUser(c)
	updated, err := h.Users.UpdateByID(c.Request().Context(), me.ID, func(u *model.User) error {
		if req.Name != "" {
			u.Name = req.Name
		}
		if req.Email != "" {
			u.Email = req.Email
		}
		if req.Photo != "" {
			u.Photo = req.Photo
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(updated))
}

// DeleteMe soft-deletes the caller's account. The document stays in the
// collection but disappears from every read.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	me := middleware.CurrentUser(c)
	if err := h.Users.Deactivate(c.Request().Context(), me.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddUser exists only so POST /users answers something sensible.
func (h *UserHandler) AddUser(c echo.Context) error {
	return apperror.Internal("This route is not defined, use /signup instead")
}

// Admin account management, built on the factory. Updates through here
// never touch credentials or the soft-delete flag.

func (h *UserHandler) GetAll() echo.HandlerFunc { return GetAll[model.User](h.Users, nil) }
func (h *UserHandler) GetOne() echo.HandlerFunc { return GetOne[model.User](h.Users, false) }

func (h *UserHandler) Update() echo.HandlerFunc {
	return UpdateOne[model.User](h.Users, func(before model.User, after *model.User) {
		after.Password = before.Password
		after.PasswordChangedAt = before.PasswordChangedAt
		after.PasswordResetToken = before.PasswordResetToken
		after.PasswordResetExpires = before.PasswordResetExpires
		after.Active = before.Active
		after.CreatedAt = before.CreatedAt
	})
}

func (h *UserHandler) Delete() echo.HandlerFunc { return DeleteOne[model.User](h.Users) }
