package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// InvitationClaims are the JWT claims carried by invitation tokens.
type InvitationClaims struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	jwt.RegisteredClaims
}

// SignInvitationToken mints a signed, expiring invitation token.
func SignInvitationToken(secret string, invitationID uuid.UUID, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: jwt secret is empty")
	}
	now := time.Now().UTC()
	claims := InvitationClaims{
		InvitationID: invitationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("security: sign invitation token: %w", err)
	}
	return signed, nil
}

// ParseInvitationToken validates an invitation token and returns the invitation id.
func ParseInvitationToken(secret, tokenString string) (uuid.UUID, error) {
	claims := &InvitationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("security: parse invitation token: %w", err)
	}
	if !token.Valid || claims.InvitationID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("security: invalid invitation token")
	}
	return claims.InvitationID, nil
}
