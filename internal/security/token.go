package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshTokenBytes is the entropy of raw refresh tokens before encoding.
const refreshTokenBytes = 48

// AccessClaims are the JWT claims carried by access tokens.
type AccessClaims struct {
	UserID uuid.UUID `json:"sub,omitempty"`
	jwt.RegisteredClaims
}

// SignAccessToken mints a short-lived HS256 access token for a user.
func SignAccessToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: jwt secret is empty")
	}
	now := time.Now().UTC()
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("security: sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(secret, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("security: parse access token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("security: invalid access token")
	}
	if claims.UserID == uuid.Nil && claims.Subject != "" {
		parsed, errParse := uuid.Parse(claims.Subject)
		if errParse != nil {
			return nil, fmt.Errorf("security: invalid token subject: %w", errParse)
		}
		claims.UserID = parsed
	}
	return claims, nil
}

// GenerateRefreshToken returns a cryptographically strong opaque token in
// URL-safe encoding. The raw value is never persisted; only its hash is.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken hashes a raw refresh token for at-rest storage and lookup.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
