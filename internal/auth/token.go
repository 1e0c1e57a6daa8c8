package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tutorhub/internal/platform/middleware"
)

// TokenIssuer mints and validates the HS256 bearer tokens the API uses.
// It implements middleware.TokenValidator.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{signingKey: []byte(signingKey), ttl: ttl}
}

type tokenClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the user. Subject is the user id; the
// display name rides along so handlers never need a user lookup for it.
func (t *TokenIssuer) Issue(userID, name string, now time.Time) (string, error) {
	claims := tokenClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "tutorhub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token.
func (t *TokenIssuer) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &middleware.TokenClaims{UserID: claims.Subject, UserName: claims.Name}, nil
}
