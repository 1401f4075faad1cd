package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	// Simulate the router having matched a parameterized route.
	c.SetPath("/api/v1/assets/:id")
	return c
}

func TestCacheKeyPerDocument(t *testing.T) {
	a := cacheKey("cache", cacheContext("/api/v1/assets/64a1f0c2e13e4a0001234567"))
	b := cacheKey("cache", cacheContext("/api/v1/assets/64a1f0c2e13e4a0001234568"))

	assert.NotEqual(t, a, b)
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	a := cacheKey("cache", cacheContext("/api/v1/assets?page=1"))
	b := cacheKey("cache", cacheContext("/api/v1/assets?page=2"))

	assert.NotEqual(t, a, b)
}

func TestCacheKeyStableForSameURL(t *testing.T) {
	a := cacheKey("cache", cacheContext("/api/v1/assets/64a1f0c2e13e4a0001234567"))
	b := cacheKey("cache", cacheContext("/api/v1/assets/64a1f0c2e13e4a0001234567"))

	assert.Equal(t, a, b)
}

func TestCacheEntryRoundTrip(t *testing.T) {
	entry := encodeEntry(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"status":"success"}`))

	status, contentType, body, ok := decodeEntry(entry)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, contentType)
	assert.Equal(t, `{"status":"success"}`, string(body))
}

func TestDecodeEntryRejectsGarbage(t *testing.T) {
	_, _, _, ok := decodeEntry([]byte{1, 2, 3})
	assert.False(t, ok)
}
