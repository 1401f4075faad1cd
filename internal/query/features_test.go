package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func params(raw string) url.Values {
	v, err := url.ParseQuery(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFilterDropsReservedKeys(t *testing.T) {
	f := New(nil, params("page=2&sort=price&limit=10&fields=name&category=weapons")).Filter()

	assert.Equal(t, bson.M{"category": "weapons"}, f.FilterDoc())
}

func TestFilterRewritesComparisonOperators(t *testing.T) {
	f := New(nil, params("price[gte]=100&ratingsAverage[lt]=4.5")).Filter()

	assert.Equal(t, bson.M{
		"price":          bson.M{"$gte": float64(100)},
		"ratingsAverage": bson.M{"$lt": 4.5},
	}, f.FilterDoc())
}

func TestFilterMergesRangeOnOneField(t *testing.T) {
	f := New(nil, params("price[gte]=100&price[lte]=500")).Filter()

	assert.Equal(t, bson.M{
		"price": bson.M{"$gte": float64(100), "$lte": float64(500)},
	}, f.FilterDoc())
}

func TestFilterCoercesBooleans(t *testing.T) {
	f := New(nil, params("featured=true")).Filter()

	assert.Equal(t, bson.M{"featured": true}, f.FilterDoc())
}

func TestFilterUnknownBracketSuffixPassesThrough(t *testing.T) {
	f := New(nil, params("price[foo]=1")).Filter()

	assert.Equal(t, bson.M{"price[foo]": float64(1)}, f.FilterDoc())
}

func TestFilterKeepsBaseScope(t *testing.T) {
	base := bson.M{"asset": "abc"}
	f := New(base, params("rating[gte]=4")).Filter()

	assert.Equal(t, "abc", f.FilterDoc()["asset"])
	assert.Equal(t, bson.M{"$gte": float64(4)}, f.FilterDoc()["rating"])
	// The caller's map must stay untouched.
	assert.Len(t, base, 1)
}

func TestSortParsesDirections(t *testing.T) {
	f := New(nil, params("sort=-ratingsAverage,price")).Sort()

	assert.Equal(t, bson.D{
		{Key: "ratingsAverage", Value: -1},
		{Key: "price", Value: 1},
	}, f.Options().Sort)
}

func TestSortDefault(t *testing.T) {
	f := New(nil, params("")).Sort()

	assert.Equal(t, bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "name", Value: 1},
	}, f.Options().Sort)
}

func TestLimitFieldsInclusion(t *testing.T) {
	f := New(nil, params("fields=name,price")).LimitFields()

	assert.Equal(t, bson.M{"name": 1, "price": 1}, f.Options().Projection)
}

func TestLimitFieldsExclusion(t *testing.T) {
	f := New(nil, params("fields=-summary,-images")).LimitFields()

	assert.Equal(t, bson.M{"summary": 0, "images": 0}, f.Options().Projection)
}

func TestLimitFieldsMixedKeepsInclusionsOnly(t *testing.T) {
	// Mongo rejects mixed projections; exclusions are dropped.
	f := New(nil, params("fields=name,price,-summary")).LimitFields()

	assert.Equal(t, bson.M{"name": 1, "price": 1}, f.Options().Projection)
}

func TestLimitFieldsDefaultHidesVersionKey(t *testing.T) {
	f := New(nil, params("")).LimitFields()

	assert.Equal(t, bson.M{"__v": 0}, f.Options().Projection)
}

func TestPaginate(t *testing.T) {
	f := New(nil, params("page=3&limit=10")).Paginate()

	require.NotNil(t, f.Options().Skip)
	require.NotNil(t, f.Options().Limit)
	assert.Equal(t, int64(20), *f.Options().Skip)
	assert.Equal(t, int64(10), *f.Options().Limit)
}

func TestPaginateDefaults(t *testing.T) {
	f := New(nil, params("page=zero&limit=-5")).Paginate()

	assert.Equal(t, int64(0), *f.Options().Skip)
	assert.Equal(t, int64(100), *f.Options().Limit)
}

func TestPipelineChains(t *testing.T) {
	f := New(nil, params("price[gte]=10&sort=price&fields=name,price&page=2&limit=5")).
		Filter().Sort().LimitFields().Paginate()

	assert.Equal(t, bson.M{"price": bson.M{"$gte": float64(10)}}, f.FilterDoc())
	assert.Equal(t, int64(5), *f.Options().Limit)
	assert.Equal(t, int64(5), *f.Options().Skip)
}
