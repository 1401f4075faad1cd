// Package handler implements the HTTP handlers. The generic factory below
// produces the five CRUD handlers for any entity accessor; entity files wire
// them together with their specific aggregations and presets.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/query"
	"github.com/meshly/asset-marketplace/internal/repository"
)

// Accessor is the entity capability the factory is parameterized over:
// find-by-filter, find-by-id with optional relation expansion, create,
// update-by-id and delete-by-id. repository.Collection satisfies it for
// every entity.
type Accessor[T any] interface {
	EntityName() string
	Find(ctx context.Context, f *query.Features, includeHidden bool) ([]T, error)
	FindByID(ctx context.Context, id primitive.ObjectID, expand, includeHidden bool) (*T, error)
	Create(ctx context.Context, doc *T) error
	UpdateByID(ctx context.Context, id primitive.ObjectID, merge func(*T) error) (*T, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// Scope narrows a list to a parent relation on nested routes (e.g. reviews
// under one asset). A nil result means no narrowing.
type Scope func(echo.Context) (bson.M, error)

// GetAll lists an entity through the query builder pipeline. The response
// carries the result count and the request timestamp alongside the data.
func GetAll[T any](acc Accessor[T], scope Scope) echo.HandlerFunc {
	return func(c echo.Context) error {
		base := bson.M{}
		if scope != nil {
			m, err := scope(c)
			if err != nil {
				return err
			}
			if m != nil {
				base = m
			}
		}

		f := query.New(base, c.QueryParams()).
			Filter().
			Sort().
			LimitFields().
			Paginate()

		docs, err := acc.Find(c.Request().Context(), f, false)
		if err != nil {
			return err
		}
		if docs == nil {
			docs = []T{}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "success",
			"results": len(docs),
			"time":    middleware.RequestedAt(c),
			"data":    docs,
		})
	}
}

// GetOne fetches a single document by the :id route parameter, expanding
// its related collection when the accessor defines one.
func GetOne[T any](acc Accessor[T], expand bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return err
		}
		doc, err := acc.FindByID(c.Request().Context(), id, expand, false)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("No document with that ID was found")
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, envelope(doc))
	}
}

// Stamp lets an entity imprint request identity onto a bound payload before
// it is persisted (creator id on assets, author on reviews). It overrides
// whatever the client supplied for those fields.
type Stamp[T any] func(echo.Context, *T)

// CreateOne binds the request body into the entity, applies the stamp and
// persists through the accessor pipeline.
func CreateOne[T any](acc Accessor[T], stamp Stamp[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		var doc T
		if err := c.Bind(&doc); err != nil {
			return err
		}
		if stamp != nil {
			stamp(c, &doc)
		}
		if err := acc.Create(c.Request().Context(), &doc); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, envelope(&doc))
	}
}

// Preserve restores fields the client must not change, given the document
// as it was before the body was merged onto it.
type Preserve[T any] func(before T, after *T)

// UpdateOne implements fetch-and-replace: the stored document is loaded,
// the JSON body is merged onto it field by field, immutable fields are
// restored and validation re-runs before the replace.
func UpdateOne[T any](acc Accessor[T], preserve Preserve[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return err
		}
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}

		doc, err := acc.UpdateByID(c.Request().Context(), id, func(d *T) error {
			before := *d
			if len(body) > 0 {
				if err := json.Unmarshal(body, d); err != nil {
					return apperror.BadRequest("Invalid data input: %v", err)
				}
			}
			if preserve != nil {
				preserve(before, d)
			}
			return nil
		})
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("No document with that ID was found")
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, envelope(doc))
	}
}

// DeleteOne removes a document by the :id route parameter and responds with
// an empty-body success.
func DeleteOne[T any](acc Accessor[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			return err
		}
		err = acc.DeleteByID(c.Request().Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("No document with that ID was found")
		}
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// envelope is the uniform single-document success shape.
func envelope(v any) echo.Map {
	return echo.Map{
		"status": "success",
		"data":   echo.Map{"data": v},
	}
}
