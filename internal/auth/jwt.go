// Package auth implements local username/password authentication with
// short lived JWT access tokens and a logout blacklist.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// JwtIssuer is the issuer claim of every token this service signs
const JwtIssuer = "JobMatch"

// DefaultTokenTTL is the lifetime of an access token
const DefaultTokenTTL = time.Hour

// TokenIssuer signs and validates HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer using secretKey.
func NewTokenIssuer(secretKey string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secretKey), ttl: DefaultTokenTTL}
}

// GenerateStandardToken returns a signed access token whose subject is userID.
func (ti *TokenIssuer) GenerateStandardToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    JwtIssuer,
		Subject:   userID.String(),
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("Failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidatedToken parses encodeToken and verifies its signature, expiry and issuer.
// The returned token carries *jwt.RegisteredClaims.
func (ti *TokenIssuer) ValidatedToken(encodeToken string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(encodeToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, errors.New("Invalid token")
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !claims.VerifyIssuer(JwtIssuer, true) {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	return token, nil
}
