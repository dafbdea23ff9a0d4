// Package auth holds the two credential primitives the lifecycle relies on:
// password hashing and signed session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token contents: the account ID as subject plus
// the email it was issued for.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTIssuer mints and verifies HS256 session tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secretKey string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secretKey), ttl: ttl, now: time.Now}
}

// Issue signs a token for accountID valid for the configured TTL.
func (i *JWTIssuer) Issue(accountID, email string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	})
	return token.SignedString(i.secret)
}

// Verify parses tokenString and checks signature and expiry. Expired tokens
// yield common.ErrTokenExpired, anything else common.ErrInvalidToken.
func (i *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
