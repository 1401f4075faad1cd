package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/model"
	"github.com/meshly/asset-marketplace/internal/repository"
	"github.com/meshly/asset-marketplace/internal/utils"
)

const testSecret = "unit-test-secret"

type stubLoader struct {
	user *model.User
	err  error
}

func (s *stubLoader) FindByID(ctx context.Context, id primitive.ObjectID, expand, includeHidden bool) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func protectedRequest(t *testing.T, loader UserLoader, prepare func(*http.Request)) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Protect(testSecret, loader)(okHandler)(c)
	return c, err
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.NewSessionToken(testSecret, userID, 60)
	require.NoError(t, err)
	return tok.Token
}

func TestProtectMissingToken(t *testing.T) {
	_, err := protectedRequest(t, &stubLoader{}, nil)

	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
}

func TestProtectGarbageToken(t *testing.T) {
	_, err := protectedRequest(t, &stubLoader{}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})

	assert.Equal(t, http.StatusUnauthorized, apperror.Normalize(err).StatusCode)
}

func TestProtectDeletedUser(t *testing.T) {
	id := primitive.NewObjectID()
	_, err := protectedRequest(t, &stubLoader{err: repository.ErrNotFound}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signedToken(t, id.Hex()))
	})

	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
}

func TestProtectPasswordChangedAfterIssue(t *testing.T) {
	id := primitive.NewObjectID()
	changed := time.Now().Add(time.Hour)
	user := &model.User{ID: id, Role: model.RoleUser, PasswordChangedAt: &changed}

	_, err := protectedRequest(t, &stubLoader{user: user}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signedToken(t, id.Hex()))
	})

	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
}

func TestProtectStoresUserOnContext(t *testing.T) {
	id := primitive.NewObjectID()
	user := &model.User{ID: id, Role: model.RoleAdmin}

	c, err := protectedRequest(t, &stubLoader{user: user}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signedToken(t, id.Hex()))
	})

	require.NoError(t, err)
	assert.Same(t, user, CurrentUser(c))
}

func TestProtectAcceptsCookie(t *testing.T) {
	id := primitive.NewObjectID()
	user := &model.User{ID: id, Role: model.RoleUser}

	_, err := protectedRequest(t, &stubLoader{user: user}, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: signedToken(t, id.Hex())})
	})

	assert.NoError(t, err)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role string, allowed ...string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("user", &model.User{Role: role})
		return RequireRole(allowed...)(okHandler)(c)
	}

	assert.NoError(t, run(model.RoleAdmin, model.RoleAdmin))
	assert.NoError(t, run(model.RoleUser, model.RoleUser, model.RoleAdmin))

	err := run(model.RoleUser, model.RoleAdmin)
	var ae *apperror.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.StatusCode)
}
