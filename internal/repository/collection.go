package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meshly/asset-marketplace/internal/query"
)

// Doc is the contract every stored entity satisfies through its pointer
// type: identity plumbing plus the pre-persist normalization and validation
// the accessor invokes explicitly.
type Doc[T any] interface {
	*T
	SetID(primitive.ObjectID)
	GetID() primitive.ObjectID
	NormalizeNew()
	Validate() error
}

// Hook is a named pipeline stage run by the accessor around persistence.
// Hooks run in registration order; the first error aborts the operation
// (pre hooks) or is returned after the write (post hooks).
type Hook[T any, PT Doc[T]] func(ctx context.Context, doc PT) error

// Collection is the entity accessor for one collection. Reads take an
// explicit includeHidden flag; when false the hidden filter (visibility or
// soft-delete flag) is merged into every query and aggregation.
type Collection[T any, PT Doc[T]] struct {
	coll   *mongo.Collection
	name   string
	hidden bson.M

	preSave    []Hook[T, PT]
	postSave   []Hook[T, PT]
	postDelete []Hook[T, PT]
	onLoad     Hook[T, PT] // run on every loaded document
	expand     Hook[T, PT] // run on FindByID when expansion is requested
}

// NewCollection builds an accessor over db[name]. hidden may be nil when
// the entity has no visibility flag.
func NewCollection[T any, PT Doc[T]](db *mongo.Database, name string, hidden bson.M) *Collection[T, PT] {
	return &Collection[T, PT]{coll: db.Collection(name), name: name, hidden: hidden}
}

// EntityName returns the collection name, used in factory log and error text.
func (c *Collection[T, PT]) EntityName() string { return c.name }

// Raw exposes the underlying driver collection for entity-specific queries.
func (c *Collection[T, PT]) Raw() *mongo.Collection { return c.coll }

// PreSave registers ordered pre-persist hooks (normalization happens first,
// unconditionally; these run after it, before the write).
func (c *Collection[T, PT]) PreSave(h ...Hook[T, PT]) *Collection[T, PT] {
	c.preSave = append(c.preSave, h...)
	return c
}

// PostSave registers ordered post-persist hooks (e.g. rating recomputation).
func (c *Collection[T, PT]) PostSave(h ...Hook[T, PT]) *Collection[T, PT] {
	c.postSave = append(c.postSave, h...)
	return c
}

// PostDelete registers hooks run with the removed document after a delete.
func (c *Collection[T, PT]) PostDelete(h ...Hook[T, PT]) *Collection[T, PT] {
	c.postDelete = append(c.postDelete, h...)
	return c
}

// OnLoad registers a hook applied to every document returned by a read.
func (c *Collection[T, PT]) OnLoad(h Hook[T, PT]) *Collection[T, PT] {
	c.onLoad = h
	return c
}

// Expand registers the relation-expansion hook used by FindByID.
func (c *Collection[T, PT]) Expand(h Hook[T, PT]) *Collection[T, PT] {
	c.expand = h
	return c
}

// scoped merges the hidden filter into a caller filter unless hidden
// documents were explicitly requested.
func (c *Collection[T, PT]) scoped(filter bson.M, includeHidden bool) bson.M {
	if includeHidden || len(c.hidden) == 0 {
		return filter
	}
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	for k, v := range c.hidden {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// Find executes a built query descriptor and returns the matching documents.
func (c *Collection[T, PT]) Find(ctx context.Context, f *query.Features, includeHidden bool) ([]T, error) {
	cur, err := c.coll.Find(ctx, c.scoped(f.FilterDoc(), includeHidden), f.Options())
	if err != nil {
		return nil, err
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if c.onLoad != nil {
		for i := range out {
			if err := c.onLoad(ctx, PT(&out[i])); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// FindByID fetches one document by identifier, optionally expanding its
// related collection. Returns ErrNotFound when the id does not resolve.
func (c *Collection[T, PT]) FindByID(ctx context.Context, id primitive.ObjectID, doExpand, includeHidden bool) (PT, error) {
	var doc T
	err := c.coll.FindOne(ctx, c.scoped(bson.M{"_id": id}, includeHidden)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := PT(&doc)
	if c.onLoad != nil {
		if err := c.onLoad(ctx, p); err != nil {
			return nil, err
		}
	}
	if doExpand && c.expand != nil {
		if err := c.expand(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Create normalizes, runs the pre-persist pipeline, inserts, then runs the
// post-persist pipeline with the stored document.
func (c *Collection[T, PT]) Create(ctx context.Context, doc PT) error {
	doc.NormalizeNew()
	if err := doc.Validate(); err != nil {
		return err
	}
	for _, h := range c.preSave {
		if err := h(ctx, doc); err != nil {
			return err
		}
	}
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.SetID(id)
	}
	for _, h := range c.postSave {
		if err := h(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// UpdateByID implements fetch-and-replace with validation re-run: the
// current document is loaded, merge applies the caller's changes to it,
// validation and the pre-persist pipeline run on the post-image, and the
// whole document is replaced. Returns ErrNotFound when the id does not
// resolve.
func (c *Collection[T, PT]) UpdateByID(ctx context.Context, id primitive.ObjectID, merge func(PT) error) (PT, error) {
	var doc T
	err := c.coll.FindOne(ctx, c.scoped(bson.M{"_id": id}, false)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := PT(&doc)
	if err := merge(p); err != nil {
		return nil, err
	}
	p.SetID(id) // identifier is immutable regardless of the merge
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, h := range c.preSave {
		if err := h(ctx, p); err != nil {
			return nil, err
		}
	}
	if _, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, p); err != nil {
		return nil, err
	}
	for _, h := range c.postSave {
		if err := h(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeleteByID removes one document and runs the post-delete pipeline with it.
// Returns ErrNotFound when the id does not resolve.
func (c *Collection[T, PT]) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	var doc T
	err := c.coll.FindOneAndDelete(ctx, c.scoped(bson.M{"_id": id}, false)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	for _, h := range c.postDelete {
		if err := h(ctx, PT(&doc)); err != nil {
			return err
		}
	}
	return nil
}

// Aggregate runs a pipeline and decodes every result into out (a pointer to
// a slice). Unless hidden documents are requested, a $match on the hidden
// filter is prepended -- except when the pipeline opens with $geoNear, which
// Mongo requires to be the first stage.
func (c *Collection[T, PT]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, includeHidden bool, out any) error {
	if !includeHidden && len(c.hidden) > 0 && !opensWithGeoNear(pipeline) {
		match := bson.D{{Key: "$match", Value: c.hidden}}
		pipeline = append(mongo.Pipeline{match}, pipeline...)
	}
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func opensWithGeoNear(pipeline mongo.Pipeline) bool {
	if len(pipeline) == 0 {
		return false
	}
	for _, e := range pipeline[0] {
		if e.Key == "$geoNear" {
			return true
		}
	}
	return false
}
