// Package auth issues and checks session tokens and password hashes.
//
// Sign-in flow:
//  1. POST /api/auth/sign-in with email + password
//  2. the password is checked against the stored bcrypt hash
//  3. a signed JWT (subject = user ID) is stored in the HttpOnly "token" cookie
//  4. RequireAuth reads the cookie on every protected request and puts the
//     user ID into the request context
//
// The token is stateless: validating it needs only the secret, no DB lookup.
//
// WHY A COOKIE AND NOT AN AUTHORIZATION HEADER?
// The pages are plain HTML plus a small script. An HttpOnly cookie is sent by
// the browser on every request, including full page loads of /generations,
// and page scripts cannot read it, so an XSS bug cannot steal the session.
// SameSite=Lax keeps other sites from riding on the cookie with a POST.
//
// WHAT IS INSIDE THE TOKEN:
//
//	header:  {"alg":"HS256","typ":"JWT"}
//	payload: {"sub":"<user id>","iss":"creo-studio","iat":...,"exp":...}
//	signature: HMAC-SHA256(header.payload, JWT_SECRET)
//
// Anyone can decode the payload (it is only base64), so it never carries
// anything secret. Changing any byte invalidates the signature.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "creo-studio"

	// DefaultTTL is how long a session lasts before the user must sign in again.
	DefaultTTL = 24 * time.Hour
)

// ErrShortSecret is returned by NewTokenService for secrets under 16 bytes.
var ErrShortSecret = errors.New("auth: JWT secret must be at least 16 characters")

// TokenService handles JWT creation and validation with a shared HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and DefaultTTL.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, ErrShortSecret
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTTL}, nil
}

// TTL is the lifetime of tokens produced by Generate. The session cookie
// uses the same value as its Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for userID that expires after TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to produce already-expired tokens.
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

// Validate verifies signature, algorithm (HS256 only), issuer and expiry,
// and returns the user ID stored in the subject claim.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
