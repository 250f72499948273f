// Package visitor gives every browser a stable anonymous identity, carried
// in a signed cookie. Per-visitor state (favorites) is keyed by it.
package visitor

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Tokens struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

type Claims struct {
	VisitorID string `json:"visitor_id"`
	jwt.RegisteredClaims
}

// NewID returns a fresh visitor id.
func NewID() string {
	return uuid.NewString()
}

func (ts Tokens) Sign(visitorID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ts.TTL)

	claims := Claims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.Issuer,
			Subject:   visitorID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign visitor token: %w", err)
	}
	return s, exp, nil
}

func (ts Tokens) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.Secret, nil
	}, jwt.WithIssuer(ts.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse visitor token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid visitor claims")
	}
	if _, err := uuid.Parse(claims.VisitorID); err != nil {
		return nil, fmt.Errorf("invalid visitor id: %w", err)
	}
	return claims, nil
}
