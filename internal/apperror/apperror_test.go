package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStatusByStatusCode(t *testing.T) {
	assert.Equal(t, "fail", BadRequest("nope").Status())
	assert.Equal(t, "fail", NotFound("nope").Status())
	assert.Equal(t, "fail", Unauthorized("nope").Status())
	assert.Equal(t, "error", Internal("boom").Status())
}

func TestConstructorsAreOperational(t *testing.T) {
	ae := BadRequest("invalid %s", "thing")
	assert.True(t, ae.IsOperational)
	assert.Equal(t, "invalid thing", ae.Message)
	assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
	assert.NotEmpty(t, ae.Stack)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	ae := Wrap(cause)

	assert.False(t, ae.IsOperational)
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	assert.ErrorIs(t, ae, cause)
}

func TestNormalizePassesThroughAppError(t *testing.T) {
	orig := NotFound("gone")
	assert.Same(t, orig, Normalize(orig))
}

func TestNormalizeKnownShapes(t *testing.T) {
	_, nonHexErr := primitive.ObjectIDFromHex("zzzzzzzzzzzzzzzzzzzzzzzz")
	require.Error(t, nonHexErr)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no documents", mongo.ErrNoDocuments, http.StatusNotFound},
		{"invalid object id", primitive.ErrInvalidHex, http.StatusBadRequest},
		{"non-hex object id", nonHexErr, http.StatusBadRequest},
		{"expired token", jwt.ErrTokenExpired, http.StatusUnauthorized},
		{"malformed token", jwt.ErrTokenMalformed, http.StatusUnauthorized},
		{"bad signature", jwt.ErrTokenSignatureInvalid, http.StatusUnauthorized},
		{"echo http error", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := Normalize(tt.err)
			assert.Equal(t, tt.status, ae.StatusCode)
			assert.True(t, ae.IsOperational)
		})
	}
}

func TestNormalizeUnknownStaysNonOperational(t *testing.T) {
	ae := Normalize(errors.New("what even is this"))
	assert.False(t, ae.IsOperational)
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
}

func serve(t *testing.T, prod bool, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = HTTPHandler(prod)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	e.HTTPErrorHandler(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHTTPHandlerDevExposesStack(t *testing.T) {
	code, body := serve(t, false, NotFound("No document with that ID was found"))

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No document with that ID was found", body["message"])
	assert.Contains(t, body, "stackTrace")
	assert.Contains(t, body, "error")
}

func TestHTTPHandlerProdOperational(t *testing.T) {
	code, body := serve(t, true, BadRequest("bad input"))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, map[string]any{"status": "fail", "message": "bad input"}, body)
}

func TestHTTPHandlerProdHidesUnknownErrors(t *testing.T) {
	code, body := serve(t, true, errors.New("connection string leaked secrets"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Something went wrong :(", body["message"])
	assert.NotContains(t, body, "stackTrace")
}
