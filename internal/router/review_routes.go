package router

import (
	"github.com/labstack/echo/v4"

	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
)

func registerReviewRoutes(api *echo.Group, d Deps, protect echo.MiddlewareFunc) {
	userOnly := middleware.RequireRole(model.RoleUser)
	userOrAdmin := middleware.RequireRole(model.RoleUser, model.RoleAdmin)

	// Flat resource.
	reviews := api.Group("/reviews", protect)
	reviews.GET("", d.Reviews.GetAll())
	reviews.POST("", d.Reviews.Create(), userOnly)
	reviews.GET("/:id", d.Reviews.GetOne())
	reviews.PATCH("/:id", d.Reviews.Update(), userOrAdmin)
	reviews.DELETE("/:id", d.Reviews.Delete(), userOrAdmin)

	// Same handlers nested under one asset; the assetID param scopes
	// listing and defaults the asset on create.
	nested := api.Group("/assets/:assetID/reviews", protect)
	nested.GET("", d.Reviews.GetAll())
	nested.POST("", d.Reviews.Create(), userOnly)
	nested.GET("/:id", d.Reviews.GetOne())
	nested.PATCH("/:id", d.Reviews.Update(), userOrAdmin)
	nested.DELETE("/:id", d.Reviews.Delete(), userOrAdmin)
}
