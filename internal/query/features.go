// Package query translates raw URL query parameters into a MongoDB filter
// plus find options. A Features value is built once per request, mutated
// through the fixed Filter -> Sort -> LimitFields -> Paginate pipeline,
// executed and discarded.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// reserved parameter names never end up in the filter document.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// operators maps the bracket suffixes recognized on field parameters
// (e.g. price[gte]=100) to their Mongo operator form.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Features accumulates a Mongo query from a base filter and the request's
// query parameters. Each stage returns the receiver so stages chain.
type Features struct {
	filter bson.M
	opts   *options.FindOptions
	params url.Values
}

// New builds a Features over a base filter (usually empty, or a parent scope
// for nested routes) and the raw query parameters. The base filter is copied
// so callers can reuse it.
func New(base bson.M, params url.Values) *Features {
	filter := bson.M{}
	for k, v := range base {
		filter[k] = v
	}
	return &Features{
		filter: filter,
		opts:   options.Find(),
		params: params,
	}
}

// Filter drops the reserved keys and rewrites comparison suffixes into their
// operator-prefixed form. Unknown field names pass through untouched; the
// database rejects what it does not know.
func (f *Features) Filter() *Features {
	for key, vals := range f.params {
		if reserved[key] || len(vals) == 0 {
			continue
		}
		value := coerce(vals[len(vals)-1]) // last value wins on duplicates

		field, op, ok := splitOperator(key)
		if !ok {
			f.filter[key] = value
			continue
		}
		// Merge so price[gte]=100&price[lte]=500 builds one range document.
		rng, _ := f.filter[field].(bson.M)
		if rng == nil {
			rng = bson.M{}
		}
		rng[op] = value
		f.filter[field] = rng
	}
	return f
}

// Sort applies the comma-separated sort parameter ("-" prefix = descending),
// defaulting to newest first with name as the tie-breaker.
func (f *Features) Sort() *Features {
	spec := bson.D{}
	if raw := f.params.Get("sort"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			dir := 1
			if strings.HasPrefix(field, "-") {
				dir = -1
				field = field[1:]
			}
			spec = append(spec, bson.E{Key: field, Value: dir})
		}
	}
	if len(spec) == 0 {
		spec = bson.D{{Key: "createdAt", Value: -1}, {Key: "name", Value: 1}}
	}
	f.opts.SetSort(spec)
	return f
}

// LimitFields applies the comma-separated fields projection, or excludes the
// internal version field when no projection is requested.
func (f *Features) LimitFields() *Features {
	raw := f.params.Get("fields")
	if raw == "" {
		f.opts.SetProjection(bson.M{"__v": 0})
		return f
	}
	include := bson.M{}
	exclude := bson.M{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			exclude[field[1:]] = 0
		} else {
			include[field] = 1
		}
	}
	// Mongo rejects projections that mix inclusion and exclusion, so when
	// both are requested the inclusions win.
	switch {
	case len(include) > 0:
		f.opts.SetProjection(include)
	case len(exclude) > 0:
		f.opts.SetProjection(exclude)
	default:
		f.opts.SetProjection(bson.M{"__v": 0})
	}
	return f
}

// Paginate computes skip and limit from the page/limit parameters.
// Non-numeric or absent input degrades to the defaults rather than failing.
func (f *Features) Paginate() *Features {
	page := intParam(f.params.Get("page"), defaultPage)
	limit := intParam(f.params.Get("limit"), defaultLimit)

	f.opts.SetSkip(int64((page - 1) * limit))
	f.opts.SetLimit(int64(limit))
	return f
}

// FilterDoc returns the accumulated filter document.
func (f *Features) FilterDoc() bson.M { return f.filter }

// Options returns the accumulated find options.
func (f *Features) Options() *options.FindOptions { return f.opts }

// splitOperator recognizes the "field[op]" parameter shape and returns the
// field and the Mongo operator.
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	mongoOp, known := operators[key[open+1:len(key)-1]]
	if !known {
		return "", "", false
	}
	return key[:open], mongoOp, true
}

// coerce turns numeric-looking parameters into float64 so Mongo range
// operators compare numbers, not strings. Everything else stays a string.
func coerce(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	if v == "true" || v == "false" {
		return v == "true"
	}
	return v
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
