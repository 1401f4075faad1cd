package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/query"
	"github.com/meshly/asset-marketplace/internal/repository"
)

type widget struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Owner string             `json:"owner"`
	Price float64            `json:"price"`
}

// fakeAccessor records calls so tests can assert on filters and payloads
// without a database.
type fakeAccessor struct {
	docs       []widget
	byID       map[primitive.ObjectID]widget
	lastFilter bson.M
	created    *widget
	deleted    []primitive.ObjectID
}

func newFakeAccessor() *fakeAccessor {
	return &fakeAccessor{byID: map[primitive.ObjectID]widget{}}
}

func (f *fakeAccessor) EntityName() string { return "widget" }

func (f *fakeAccessor) Find(ctx context.Context, q *query.Features, includeHidden bool) ([]widget, error) {
	f.lastFilter = q.FilterDoc()
	return f.docs, nil
}

func (f *fakeAccessor) FindByID(ctx context.Context, id primitive.ObjectID, expand, includeHidden bool) (*widget, error) {
	w, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (f *fakeAccessor) Create(ctx context.Context, doc *widget) error {
	doc.ID = primitive.NewObjectID()
	f.created = doc
	return nil
}

func (f *fakeAccessor) UpdateByID(ctx context.Context, id primitive.ObjectID, merge func(*widget) error) (*widget, error) {
	w, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := merge(&w); err != nil {
		return nil, err
	}
	f.byID[id] = w
	return &w, nil
}

func (f *fakeAccessor) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func request(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req, httptest.NewRecorder()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetAllEnvelope(t *testing.T) {
	acc := newFakeAccessor()
	acc.docs = []widget{{Name: "a"}, {Name: "b"}}

	e := echo.New()
	req, rec := request(http.MethodGet, "/?price[gte]=10", "")
	c := e.NewContext(req, rec)

	require.NoError(t, GetAll[widget](acc, nil)(c))

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["results"])
	assert.Contains(t, body, "time")
	assert.Equal(t, bson.M{"price": bson.M{"$gte": float64(10)}}, acc.lastFilter)
}

func TestGetAllEmptyListNotNull(t *testing.T) {
	acc := newFakeAccessor()

	e := echo.New()
	req, rec := request(http.MethodGet, "/", "")
	c := e.NewContext(req, rec)

	require.NoError(t, GetAll[widget](acc, nil)(c))

	body := decode(t, rec)
	assert.Equal(t, float64(0), body["results"])
	assert.Equal(t, []any{}, body["data"])
}

func TestGetAllAppliesScope(t *testing.T) {
	acc := newFakeAccessor()
	parent := primitive.NewObjectID()

	e := echo.New()
	req, rec := request(http.MethodGet, "/", "")
	c := e.NewContext(req, rec)

	scope := func(echo.Context) (bson.M, error) {
		return bson.M{"asset": parent}, nil
	}
	require.NoError(t, GetAll[widget](acc, scope)(c))

	assert.Equal(t, parent, acc.lastFilter["asset"])
}

func TestGetOne(t *testing.T) {
	acc := newFakeAccessor()
	id := primitive.NewObjectID()
	acc.byID[id] = widget{ID: id, Name: "found"}

	e := echo.New()
	req, rec := request(http.MethodGet, "/", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	require.NoError(t, GetOne[widget](acc, false)(c))

	body := decode(t, rec)
	data := body["data"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "found", data["name"])
}

func TestGetOneMissingIs404(t *testing.T) {
	acc := newFakeAccessor()

	e := echo.New()
	req, rec := request(http.MethodGet, "/", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	err := GetOne[widget](acc, false)(c)
	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
}

func TestGetOneBadHex(t *testing.T) {
	acc := newFakeAccessor()

	// Wrong length and right-length-but-not-hex both classify as 400.
	for _, id := range []string{"not-an-object-id", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		e := echo.New()
		req, rec := request(http.MethodGet, "/", "")
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)

		err := GetOne[widget](acc, false)(c)
		assert.Equal(t, http.StatusBadRequest, apperror.Normalize(err).StatusCode, id)
	}
}

func TestCreateOneStampOverridesClient(t *testing.T) {
	acc := newFakeAccessor()

	e := echo.New()
	req, rec := request(http.MethodPost, "/", `{"name":"crate","owner":"spoofed"}`)
	c := e.NewContext(req, rec)

	stamp := func(c echo.Context, w *widget) { w.Owner = "session-user" }
	require.NoError(t, CreateOne[widget](acc, stamp)(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, acc.created)
	assert.Equal(t, "session-user", acc.created.Owner)
	assert.Equal(t, "crate", acc.created.Name)
}

func TestUpdateOneMergesAndPreserves(t *testing.T) {
	acc := newFakeAccessor()
	id := primitive.NewObjectID()
	acc.byID[id] = widget{ID: id, Name: "old", Owner: "alice", Price: 10}

	e := echo.New()
	req, rec := request(http.MethodPatch, "/", `{"name":"new","owner":"mallory"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	preserve := func(before widget, after *widget) { after.Owner = before.Owner }
	require.NoError(t, UpdateOne[widget](acc, preserve)(c))

	got := acc.byID[id]
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, float64(10), got.Price) // untouched fields survive the merge
}

func TestUpdateOneRejectsBadJSON(t *testing.T) {
	acc := newFakeAccessor()
	id := primitive.NewObjectID()
	acc.byID[id] = widget{ID: id, Name: "old"}

	e := echo.New()
	req, rec := request(http.MethodPatch, "/", `{"name":`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	err := UpdateOne[widget](acc, nil)(c)
	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
	assert.Equal(t, "old", acc.byID[id].Name)
}

func TestDeleteOne(t *testing.T) {
	acc := newFakeAccessor()
	id := primitive.NewObjectID()
	acc.byID[id] = widget{ID: id}

	e := echo.New()
	req, rec := request(http.MethodDelete, "/", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	require.NoError(t, DeleteOne[widget](acc)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Equal(t, []primitive.ObjectID{id}, acc.deleted)
}

func TestDeleteOneMissingIs404(t *testing.T) {
	acc := newFakeAccessor()

	e := echo.New()
	req, rec := request(http.MethodDelete, "/", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	err := DeleteOne[widget](acc)(c)
	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
}
