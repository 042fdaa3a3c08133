// Package auth issues and verifies the credentials used by the notes API:
// bcrypt password hashes, HS256 bearer tokens and the optional GitHub sign-in.
//
// TOKEN FORMAT:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","iss":"notekeep","iat":...,"exp":...}
//
// A token carries only the user id. Whether that user still exists is
// checked by RequireAuth on every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "notekeep"

	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is wrapped by every error Validate returns.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and verifies bearer tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A ttl of zero selects
// DefaultTokenTTL. Secrets shorter than 16 characters are rejected.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("auth: token TTL must not be negative, got %s", ttl)
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports the lifetime given to tokens from Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token whose subject is userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token that expires d from now. Tests use a
// negative d to produce tokens that are already expired.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, and returns the
// user id from the subject claim.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token with
// "alg":"none" or an asymmetric algorithm is never accepted.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return c.Subject, nil
}
