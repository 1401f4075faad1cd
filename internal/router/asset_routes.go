package router

import (
	"github.com/labstack/echo/v4"

	"github.com/meshly/asset-marketplace/internal/handler"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
)

func registerAssetRoutes(api *echo.Group, d Deps, protect echo.MiddlewareFunc) {
	assets := api.Group("/assets")
	admin := middleware.RequireRole(model.RoleAdmin)

	// Public catalog reads go through the response cache.
	assets.GET("", d.Assets.GetAll(), d.Cache)
	assets.GET("/top-5-cheap", d.Assets.GetAll(), handler.TopFiveCheap, d.Cache)
	assets.GET("/stats", d.Assets.Stats, d.Cache)
	assets.GET("/within/:distance/center/:latlng/unit/:unit", d.Assets.Within)
	assets.GET("/distances/:latlng/unit/:unit", d.Assets.Distances)
	assets.GET("/:id", d.Assets.GetOne(), d.Cache)

	assets.GET("/plan/:year", d.Assets.Plan, protect, admin)

	assets.POST("", d.Assets.Create(), protect)
	assets.PATCH("/:id", d.Assets.Update(), protect)
	assets.DELETE("/:id", d.Assets.Delete(), protect)
}
