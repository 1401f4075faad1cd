package model

import (
	"math"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
)

// Categories an asset may belong to.
var AssetCategories = []string{
	"architecture", "vehicles", "characters", "furniture",
	"electronics", "nature", "other",
}

// File formats the marketplace accepts.
var AssetFileTypes = []string{".blend", ".obj", ".max", ".c4d", ".fbx", ".ma"}

// GeoPoint is a GeoJSON point, coordinates ordered longitude, latitude.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// Asset is a document in the `assets` collection. IsSecret is the
// visibility flag: secret assets are excluded from all read paths and
// aggregations unless the caller explicitly includes hidden documents.
// CreatedBy is stamped from the authenticated session and immutable.
type Asset struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Slug            string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	PriceDiscount   *float64           `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	RatingsAverage  float64            `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int64              `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	IsSecret        bool               `bson:"isSecret" json:"-"`
	ImageCover      string             `bson:"imageCover" json:"imageCover"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	CreatedBy       primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Category        string             `bson:"category" json:"category"`
	FileType        string             `bson:"fileType" json:"fileType"`
	FileDirectory   string             `bson:"fileDirectory,omitempty" json:"fileDirectory,omitempty"`
	Location        *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`

	// Populated on single reads, never stored.
	Reviews []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`
}

// SetID and GetID satisfy the accessor document contract.
func (a *Asset) SetID(id primitive.ObjectID) { a.ID = id }
func (a *Asset) GetID() primitive.ObjectID  { return a.ID }

// Validate enforces the asset field constraints before persisting. Runs as a
// pre-persist hook on the assets accessor.
func (a *Asset) Validate() error {
	name := strings.TrimSpace(a.Name)
	if len(name) < 5 || len(name) > 40 {
		return apperror.New("Name must be 5-40 characters", http.StatusBadRequest)
	}
	if a.Price <= 0 {
		return apperror.New("A 3D asset must have a price", http.StatusBadRequest)
	}
	if a.PriceDiscount != nil && *a.PriceDiscount >= a.Price {
		return apperror.New("Discount cannot be greater than the price", http.StatusBadRequest)
	}
	if a.RatingsAverage < 1 || a.RatingsAverage > 5 {
		return apperror.New("A rating must be between 1.0-5.0", http.StatusBadRequest)
	}
	if strings.TrimSpace(a.ImageCover) == "" {
		return apperror.New("A 3D asset must have a cover image", http.StatusBadRequest)
	}
	if !contains(AssetCategories, a.Category) {
		return apperror.New("An asset must belong to a known category", http.StatusBadRequest)
	}
	if !contains(AssetFileTypes, a.FileType) {
		return apperror.New("An asset must have a supported filetype", http.StatusBadRequest)
	}
	if a.Location != nil && (a.Location.Type != "Point" || len(a.Location.Coordinates) != 2) {
		return apperror.New("Location must be a GeoJSON point", http.StatusBadRequest)
	}
	return nil
}

// NormalizeNew fills defaults and derives the slug for a new asset.
func (a *Asset) NormalizeNew() {
	a.Name = strings.TrimSpace(a.Name)
	a.Description = strings.TrimSpace(a.Description)
	if a.RatingsAverage == 0 {
		a.RatingsAverage = 4.0
	}
	if a.Category == "" {
		a.Category = "other"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Slug = Slugify(a.Name)
}

// RoundRating rounds an average rating to one decimal place, matching how
// stored ratings are presented.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// Slugify lowercases a name and collapses every non-alphanumeric run into a
// single dash.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
