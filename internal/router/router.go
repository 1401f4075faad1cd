package router

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meshly/asset-marketplace/internal/config"
	"github.com/meshly/asset-marketplace/internal/handler"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/repository"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg     config.Config
	DB      *mongo.Database
	Users   *repository.UserRepo
	Auth    *handler.AuthHandler
	Account *handler.UserHandler
	Assets  *handler.AssetHandler
	Reviews *handler.ReviewHandler

	// Cache wraps public catalog reads; pass-through when caching is off.
	Cache echo.MiddlewareFunc
	// RateLimit throttles API routes only; the health check stays exempt.
	RateLimit echo.MiddlewareFunc
}

// Register mounts the whole API under /api/v1 plus the health check.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	api := e.Group("/api/v1")
	if d.RateLimit != nil {
		api.Use(d.RateLimit)
	}
	protect := middleware.Protect(d.Cfg.JWTSecret, d.Users)

	registerUserRoutes(api, d, protect)
	registerAssetRoutes(api, d, protect)
	registerReviewRoutes(api, d, protect)
}
