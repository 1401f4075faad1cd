package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meshly/asset-marketplace/internal/model"
)

// ReviewRepo is the entity accessor for reviews. Every read populates the
// reviewing user's name and photo; every write recomputes the parent
// asset's rating aggregate as an explicit post-persist hook.
type ReviewRepo struct {
	*Collection[model.Review, *model.Review]
	assets *mongo.Collection
	users  *mongo.Collection
}

func NewReviewRepo(db *mongo.Database) *ReviewRepo {
	r := &ReviewRepo{
		Collection: NewCollection[model.Review, *model.Review](db, "reviews", nil),
		assets:     db.Collection("assets"),
		users:      db.Collection("users"),
	}

	r.OnLoad(func(ctx context.Context, rev *model.Review) error {
		var author model.ReviewAuthor
		err := r.users.FindOne(ctx, bson.M{"_id": rev.User}).Decode(&author)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil // reviewer deleted since; leave author empty
		}
		if err != nil {
			return err
		}
		rev.Author = &author
		return nil
	})

	recalc := func(ctx context.Context, rev *model.Review) error {
		return r.CalcAvgRatings(ctx, rev.Asset)
	}
	r.PostSave(recalc)
	r.PostDelete(recalc)
	return r
}

// ratingAgg is the shape produced by the rating aggregation below.
type ratingAgg struct {
	NumRatings int64   `bson:"numRatings"`
	AvgRating  float64 `bson:"avgRating"`
}

// CalcAvgRatings aggregates all reviews of one asset and writes the rounded
// average and count back onto the asset document. With no reviews left the
// asset falls back to the 4.0 / 0 defaults.
func (r *ReviewRepo) CalcAvgRatings(ctx context.Context, assetID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"asset": assetID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$asset",
			"numRatings": bson.M{"$sum": 1},
			"avgRating":  bson.M{"$avg": "$rating"},
		}}},
	}
	var stats []ratingAgg
	if err := r.Aggregate(ctx, pipeline, true, &stats); err != nil {
		return err
	}

	update := bson.M{"ratingsAverage": 4.0, "ratingsQuantity": int64(0)}
	if len(stats) > 0 {
		update = bson.M{
			"ratingsAverage":  model.RoundRating(stats[0].AvgRating),
			"ratingsQuantity": stats[0].NumRatings,
		}
	}
	_, err := r.assets.UpdateOne(ctx, bson.M{"_id": assetID}, bson.M{"$set": update})
	return err
}
