// Package auth extracts the requesting actor from bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"hubsearch/domain"
)

var errNoSecret = errors.New("no signing secret configured")

// ActorClaims is the token payload issued by the CMS session layer.
type ActorClaims struct {
	UserID int64   `json:"uid"`
	Groups []int64 `json:"gids"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed actor tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier. An empty secret disables verification and
// every request resolves to a guest actor.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses a bearer token into an actor. Any failure falls back to the
// guest actor rather than rejecting the request, since anonymous search is
// always allowed.
func (v *Verifier) Verify(authorization string) domain.Actor {
	actor, err := v.verify(authorization)
	if err != nil {
		return domain.Guest()
	}
	return actor
}

func (v *Verifier) verify(authorization string) (domain.Actor, error) {
	if len(v.secret) == 0 {
		return domain.Actor{}, errNoSecret
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if tokenString == "" {
		return domain.Actor{}, errors.New("empty token")
	}

	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return domain.Actor{}, errors.New("invalid token claims")
	}

	return domain.Actor{
		ID:            claims.UserID,
		Authenticated: true,
		Groups:        claims.Groups,
	}, nil
}
