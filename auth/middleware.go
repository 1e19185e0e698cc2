package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"hubsearch/domain"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// actorContextKey is the key for storing the actor in request context
const actorContextKey contextKey = "actor"

// Middleware resolves the requesting actor for every request. Requests
// without a valid token proceed as guests.
func Middleware(verifier *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := verifier.Verify(c.Request().Header.Get("Authorization"))

			ctx := context.WithValue(c.Request().Context(), actorContextKey, actor)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ActorFromContext returns the actor stored by Middleware, or the guest
// actor when none was set.
func ActorFromContext(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorContextKey).(domain.Actor); ok {
		return actor
	}
	return domain.Guest()
}
