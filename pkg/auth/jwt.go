package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audience     = "travel-booking"
	sessionScope = "booking.session:write"
)

// Claims bind a bearer to exactly one booking session of one tenant.
type Claims struct {
	SessionID string `json:"sid"`
	TenantID  string `json:"tid"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

func NewSessionToken(sessionID, tenantID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		TenantID:  tenantID,
		Scope:     sessionScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid && claims.Scope == sessionScope {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
