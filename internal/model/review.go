package model

import (
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
)

// Review is a document in the `reviews` collection. Asset and User are
// references; the {asset, user} pair carries a unique index so one user
// can only review an asset once. Author (name and photo of the reviewing
// user) is populated on reads via $lookup and never stored.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string             `bson:"review" json:"review"`
	Rating    float64            `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Asset     primitive.ObjectID `bson:"asset" json:"asset"`
	User      primitive.ObjectID `bson:"user" json:"user"`

	Author *ReviewAuthor `bson:"author,omitempty" json:"author,omitempty"`
}

// ReviewAuthor is the populated slice of the reviewing user.
type ReviewAuthor struct {
	Name  string `bson:"name" json:"name"`
	Photo string `bson:"photo,omitempty" json:"photo,omitempty"`
}

// SetID and GetID satisfy the accessor document contract.
func (r *Review) SetID(id primitive.ObjectID) { r.ID = id }
func (r *Review) GetID() primitive.ObjectID  { return r.ID }

// Validate enforces the review field constraints before persisting.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Review) == "" {
		return apperror.New("Review cannot be empty", http.StatusBadRequest)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return apperror.New("A rating must be between 1.0-5.0", http.StatusBadRequest)
	}
	if r.Asset.IsZero() {
		return apperror.New("A review must belong to an asset", http.StatusBadRequest)
	}
	if r.User.IsZero() {
		return apperror.New("A review must belong to a user", http.StatusBadRequest)
	}
	return nil
}

// NormalizeNew stamps the creation time for a new review.
func (r *Review) NormalizeNew() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}
