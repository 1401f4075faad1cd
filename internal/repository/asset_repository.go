package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meshly/asset-marketplace/internal/model"
)

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// AssetRepo is the entity accessor for 3D assets plus the aggregation
// helpers layered on top of the generic collection.
type AssetRepo struct {
	*Collection[model.Asset, *model.Asset]
}

// NewAssetRepo wires the assets accessor: secret assets are hidden from
// reads and aggregations, the slug is re-derived on every save, and single
// reads can expand the asset's reviews.
func NewAssetRepo(db *mongo.Database) *AssetRepo {
	coll := NewCollection[model.Asset, *model.Asset](db, "assets", bson.M{"isSecret": bson.M{"$ne": true}})
	coll.PreSave(func(ctx context.Context, a *model.Asset) error {
		a.Slug = model.Slugify(a.Name)
		return nil
	})

	reviews := db.Collection("reviews")
	coll.Expand(func(ctx context.Context, a *model.Asset) error {
		cur, err := reviews.Find(ctx, bson.M{"asset": a.ID})
		if err != nil {
			return err
		}
		return cur.All(ctx, &a.Reviews)
	})
	return &AssetRepo{coll}
}

// CategoryStats is one row of the stats aggregation, grouped by category.
type CategoryStats struct {
	Category  string  `bson:"_id" json:"category"`
	NumAssets int64   `bson:"numAssets" json:"numAssets"`
	AvgRating float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice  float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice  float64 `bson:"minPrice" json:"minPrice"`
}

// Stats aggregates well-rated assets per category, sorted by average price.
func (r *AssetRepo) Stats(ctx context.Context) ([]CategoryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": 4.2}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"$toUpper": "$category"},
			"numAssets": bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":  bson.M{"$avg": "$price"},
			"minPrice":  bson.M{"$min": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}
	var out []CategoryStats
	if err := r.Aggregate(ctx, pipeline, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthBucket is one row of the monthly upload plan.
type MonthBucket struct {
	Month     int32    `bson:"month" json:"month"`
	NumAssets int64    `bson:"numAssets" json:"numAssets"`
	Names     []string `bson:"names" json:"names"`
}

// MonthlyPlan buckets the assets uploaded in a year by month, busiest month
// first.
func (r *AssetRepo) MonthlyPlan(ctx context.Context, year int) ([]MonthBucket, error) {
	start := yearStart(year)
	end := yearStart(year + 1)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": start, "$lt": end}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"$month": "$createdAt"},
			"numAssets": bson.M{"$sum": 1},
			"names":     bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numAssets", Value: -1}}}},
		{{Key: "$limit", Value: 12}},
	}
	var out []MonthBucket
	if err := r.Aggregate(ctx, pipeline, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Within returns the visible assets whose studio location falls inside a
// sphere of radiusRadians around the given center.
func (r *AssetRepo) Within(ctx context.Context, lng, lat, radiusRadians float64) ([]model.Asset, error) {
	filter := bson.M{
		"location": bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{lng, lat}, radiusRadians},
		}},
		"isSecret": bson.M{"$ne": true},
	}
	cur, err := r.Raw().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []model.Asset
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssetDistance pairs an asset name with its distance from a query point.
type AssetDistance struct {
	Name     string  `bson:"name" json:"name"`
	Distance float64 `bson:"distance" json:"distance"`
}

// Distances computes the distance from a point to every located asset,
// scaled by multiplier (meters to km or miles). $geoNear must be the first
// stage, so the hidden-asset match is folded into its query instead.
func (r *AssetRepo) Distances(ctx context.Context, lng, lat, multiplier float64) ([]AssetDistance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": bson.A{lng, lat},
			},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"query":              bson.M{"isSecret": bson.M{"$ne": true}},
		}}},
		{{Key: "$project", Value: bson.M{"name": 1, "distance": 1}}},
	}
	var out []AssetDistance
	if err := r.Aggregate(ctx, pipeline, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}
