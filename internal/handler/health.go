package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Health reports liveness plus database reachability for load balancers
// and uptime monitors.
func Health(db *mongo.Database) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		dbStatus := "up"
		if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
			dbStatus = "down"
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":   "success",
			"database": dbStatus,
		})
	}
}
