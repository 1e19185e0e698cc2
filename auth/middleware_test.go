package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubsearch/domain"
)

func TestMiddleware_SetsActor(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, testSecret, ActorClaims{UserID: 42, Groups: []int64{7}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var actor domain.Actor
	next := func(c echo.Context) error {
		actor = ActorFromContext(c.Request().Context())
		return nil
	}

	require.NoError(t, Middleware(v)(next)(c))
	assert.True(t, actor.Authenticated)
	assert.Equal(t, int64(42), actor.ID)
}

func TestMiddleware_InvalidTokenIsGuest(t *testing.T) {
	v := NewVerifier(testSecret)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var actor domain.Actor
	next := func(c echo.Context) error {
		actor = ActorFromContext(c.Request().Context())
		return nil
	}

	require.NoError(t, Middleware(v)(next)(c))
	assert.False(t, actor.Authenticated, "bad tokens degrade to guest instead of 401")
}

func TestActorFromContext_Default(t *testing.T) {
	actor := ActorFromContext(context.Background())
	assert.Equal(t, domain.Guest(), actor)
}
