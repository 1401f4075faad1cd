package router

import (
	"github.com/labstack/echo/v4"

	"github.com/meshly/asset-marketplace/internal/handler"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
)

func registerUserRoutes(api *echo.Group, d Deps, protect echo.MiddlewareFunc) {
	users := api.Group("/users")

	users.POST("/signup", d.Auth.Signup)
	users.POST("/login", d.Auth.Login)
	users.GET("/logout", d.Auth.Logout)
	users.GET("/isloggedin", d.Auth.IsLoggedIn)
	users.POST("/forgotPassword", d.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", d.Auth.ResetPassword)

	// Everything past this point needs a live session.
	users.Use(protect)

	users.PATCH("/updateMyPassword", d.Auth.UpdatePassword)
	users.GET("/getMe", d.Account.GetOne(), handler.SelfID)
	users.PATCH("/updateMe", d.Account.UpdateMe)
	users.DELETE("/deleteMe", d.Account.DeleteMe)

	admin := middleware.RequireRole(model.RoleAdmin)
	users.GET("", d.Account.GetAll(), admin)
	users.POST("", d.Account.AddUser, admin)
	users.GET("/:id", d.Account.GetOne(), admin)
	users.PATCH("/:id", d.Account.Update(), admin)
	users.DELETE("/:id", d.Account.Delete(), admin)
}
