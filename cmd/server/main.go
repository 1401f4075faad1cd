package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/config"
	"github.com/meshly/asset-marketplace/internal/database"
	"github.com/meshly/asset-marketplace/internal/handler"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/queue"
	"github.com/meshly/asset-marketplace/internal/repository"
	"github.com/meshly/asset-marketplace/internal/router"
	"github.com/meshly/asset-marketplace/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(ctx)
	}()

	idxCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(idxCtx, db); err != nil {
		cancel()
		log.Fatalf("indexes: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	assets := repository.NewAssetRepo(db)
	reviews := repository.NewReviewRepo(db)

	mail := &service.EmailPublisher{}
	go func() {
		if err := queue.StartEmailConsumer(cfg); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperror.HTTPHandler(cfg.IsProd())

	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("10K"))
	e.Use(middleware.RequestTime())

	router.Register(e, router.Deps{
		Cfg:       cfg,
		DB:        db,
		Users:     users,
		Auth:      handler.NewAuthHandler(cfg, users, mail),
		Account:   handler.NewUserHandler(users),
		Assets:    handler.NewAssetHandler(assets),
		Reviews:   handler.NewReviewHandler(reviews),
		Cache:     middleware.ResponseCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	// Unmatched routes get the same error envelope as everything else.
	e.RouteNotFound("/*", func(c echo.Context) error {
		return apperror.NotFound("Can't find %s on this server", c.Request().URL.Path)
	})

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
