package models

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Principal is the caller a request acts on behalf of. The zero value is anonymous.
type Principal struct {
	UserID        int64
	Username      string
	Authenticated bool
}

// Anonymous is the unauthenticated principal.
var Anonymous = Principal{}

// PrincipalFromClaims converts verified claims into a principal. Nil claims yield Anonymous.
func PrincipalFromClaims(claims *JWTClaims) Principal {
	if claims == nil || claims.UserID <= 0 {
		return Anonymous
	}
	return Principal{UserID: claims.UserID, Username: claims.Username, Authenticated: true}
}

// SubjectKey identifies the principal for rate limiting.
func (p Principal) SubjectKey() string {
	if !p.Authenticated {
		return ""
	}
	return "user:" + strconv.FormatInt(p.UserID, 10)
}
