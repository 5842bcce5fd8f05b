package security

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	signed, err := SignAccessToken(testSecret, userID, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAccessToken(testSecret, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id = %s, want %s", claims.UserID, userID)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	signed, err := SignAccessToken(testSecret, uuid.New(), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken("other-secret", signed); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	signed, err := SignAccessToken(testSecret, uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(testSecret, signed); err == nil {
		t.Fatal("expected parse to fail for expired token")
	}
}

func TestSignAccessTokenEmptySecret(t *testing.T) {
	if _, err := SignAccessToken("", uuid.New(), time.Minute); err == nil {
		t.Fatal("expected sign to fail with empty secret")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	a, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatal("two tokens are identical")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token %q is not URL-safe", a)
	}

	if HashToken(a) == HashToken(b) {
		t.Fatal("hashes of distinct tokens collide")
	}
	if HashToken(a) != HashToken(a) {
		t.Fatal("hash is not deterministic")
	}
	if HashToken(a) == a {
		t.Fatal("hash equals the raw token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals the plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("wrong password accepted")
	}
}

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	signed, err := SignPasswordResetToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := ParsePasswordResetToken(testSecret, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != userID {
		t.Fatalf("user id = %s, want %s", parsed, userID)
	}
}

func TestPasswordResetTokenRejectsAccessToken(t *testing.T) {
	signed, err := SignAccessToken(testSecret, uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParsePasswordResetToken(testSecret, signed); err == nil {
		t.Fatal("access token accepted as reset token")
	}
}

func TestInvitationTokenRoundTrip(t *testing.T) {
	invID := uuid.New()
	signed, err := SignInvitationToken(testSecret, invID, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := ParseInvitationToken(testSecret, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != invID {
		t.Fatalf("invitation id = %s, want %s", parsed, invID)
	}

	if _, err := ParseInvitationToken("other-secret", signed); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}
