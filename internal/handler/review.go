package handler

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/repository"
)

// ReviewHandler serves reviews both as a top-level resource and nested
// under one asset.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

// assetScope narrows a nested list to the parent asset from the route.
func assetScope(c echo.Context) (bson.M, error) {
	raw := c.Param("assetID")
	if raw == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, err
	}
	return bson.M{"asset": oid}, nil
}

func (h *ReviewHandler) GetAll() echo.HandlerFunc {
	return GetAll[model.Review](h.Reviews, assetScope)
}

func (h *ReviewHandler) GetOne() echo.HandlerFunc {
	return GetOne[model.Review](h.Reviews, false)
}

// Create stamps the author from the session and, on nested routes, the
// asset from the route. Explicit ids in the body never win.
func (h *ReviewHandler) Create() echo.HandlerFunc {
	return CreateOne[model.Review](h.Reviews, func(c echo.Context, rv *model.Review) {
		if user := middleware.CurrentUser(c); user != nil {
			rv.User = user.ID
		}
		if raw := c.Param("assetID"); raw != "" {
			if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
				rv.Asset = oid
			}
		}
	})
}

// Update keeps the review pinned to its original asset and author.
func (h *ReviewHandler) Update() echo.HandlerFunc {
	return UpdateOne[model.Review](h.Reviews, func(before model.Review, after *model.Review) {
		after.Asset = before.Asset
		after.User = before.User
		after.CreatedAt = before.CreatedAt
	})
}

func (h *ReviewHandler) Delete() echo.HandlerFunc { return DeleteOne[model.Review](h.Reviews) }
