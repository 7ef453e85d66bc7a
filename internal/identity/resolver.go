// Package identity resolves an owner id from an inbound request when
// the body omits one. Token issuance and user management stay with the
// external identity provider; only claim extraction happens here.
package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type Resolver interface {
	// ResolveOwnerID reports the authenticated owner id, if any.
	ResolveOwnerID(r *http.Request) (string, bool)
}

// TokenResolver verifies a bearer token against a shared HMAC secret
// and uses its subject claim as the owner id.
type TokenResolver struct {
	secret []byte
}

func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret)}
}

func (t *TokenResolver) ResolveOwnerID(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" || len(t.secret) == 0 {
		return "", false
	}

	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// None never resolves; requests must carry their owner id explicitly.
type None struct{}

func (None) ResolveOwnerID(*http.Request) (string, bool) { return "", false }
