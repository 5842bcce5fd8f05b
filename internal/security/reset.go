package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PasswordResetClaims are the JWT claims carried by password reset tokens.
type PasswordResetClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Purpose string    `json:"purpose"`
	jwt.RegisteredClaims
}

// resetPurpose guards against replaying other token kinds as resets.
const resetPurpose = "password_reset"

// SignPasswordResetToken mints a signed, expiring password reset token.
func SignPasswordResetToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: jwt secret is empty")
	}
	now := time.Now().UTC()
	claims := PasswordResetClaims{
		UserID:  userID,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("security: sign reset token: %w", err)
	}
	return signed, nil
}

// ParsePasswordResetToken validates a reset token and returns the user id.
func ParsePasswordResetToken(secret, tokenString string) (uuid.UUID, error) {
	claims := &PasswordResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("security: parse reset token: %w", err)
	}
	if !token.Valid || claims.Purpose != resetPurpose || claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("security: invalid reset token")
	}
	return claims.UserID, nil
}
