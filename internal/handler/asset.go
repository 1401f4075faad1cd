package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/middleware"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/repository"
)

// Earth radius per distance unit, used to convert a distance into the
// radians $centerSphere expects.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKM    = 6378.1

	metersPerMile = 0.000621371
	metersPerKM   = 0.001
)

// AssetHandler serves the asset catalog: factory CRUD, the aggregation
// endpoints and the geospatial lookups.
type AssetHandler struct {
	Assets *repository.AssetRepo
}

func NewAssetHandler(assets *repository.AssetRepo) *AssetHandler {
	return &AssetHandler{Assets: assets}
}

// TopFiveCheap pre-fills the list query with the best-rated-cheapest
// preset before handing off to the regular list handler.
func TopFiveCheap(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().URL.RawQuery = "sort=-ratingsAverage,price&limit=5&fields=name,price,ratingsAverage,summary,category"
		return next(c)
	}
}

func (h *AssetHandler) GetAll() echo.HandlerFunc { return GetAll[model.Asset](h.Assets, nil) }

// GetOne expands the asset's reviews on single-document reads.
func (h *AssetHandler) GetOne() echo.HandlerFunc { return GetOne[model.Asset](h.Assets, true) }

// Create stamps the uploading user onto the new asset.
func (h *AssetHandler) Create() echo.HandlerFunc {
	return CreateOne[model.Asset](h.Assets, func(c echo.Context, a *model.Asset) {
		if user := middleware.CurrentUser(c); user != nil {
			a.CreatedBy = user.ID
		}
	})
}

// Update keeps ownership and creation time immutable across edits.
func (h *AssetHandler) Update() echo.HandlerFunc {
	return UpdateOne[model.Asset](h.Assets, func(before model.Asset, after *model.Asset) {
		after.CreatedBy = before.CreatedBy
		after.CreatedAt = before.CreatedAt
	})
}

func (h *AssetHandler) Delete() echo.HandlerFunc { return DeleteOne[model.Asset](h.Assets) }

// Stats returns the per-category rating and price aggregation.
func (h *AssetHandler) Stats(c echo.Context) error {
	stats, err := h.Assets.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(stats))
}

// Plan returns the month-by-month upload histogram for one year.
func (h *AssetHandler) Plan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return apperror.BadRequest("Invalid year: %s", c.Param("year"))
	}
	plan, err := h.Assets.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(plan))
}

// Within lists assets inside a sphere around a point, e.g.
// /assets-within/200/center/34.1,-118.1/unit/mi.
func (h *AssetHandler) Within(c echo.Context) error {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		return apperror.BadRequest("Invalid distance: %s", c.Param("distance"))
	}
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}

	radius := distance / earthRadiusMiles
	if c.Param("unit") == "km" {
		radius = distance / earthRadiusKM
	}

	assets, err := h.Assets.Within(c.Request().Context(), lng, lat, radius)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(assets),
		"data":    echo.Map{"data": assets},
	})
}

// Distances lists every asset with its distance from a point, in the
// requested unit.
func (h *AssetHandler) Distances(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}

	multiplier := metersPerMile
	if c.Param("unit") == "km" {
		multiplier = metersPerKM
	}

	distances, err := h.Assets.Distances(c.Request().Context(), lng, lat, multiplier)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(distances))
}

func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, apperror.BadRequest("Latitude and Longitude not defined correctly, use the lat,lng format")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, apperror.BadRequest("Latitude and Longitude not defined correctly, use the lat,lng format")
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, apperror.BadRequest("Latitude and Longitude not defined correctly, use the lat,lng format")
	}
	return lat, lng, nil
}
