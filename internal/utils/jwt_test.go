package utils

import (
	"testing"
	"time"
)

func init() {
	SetJWTSecret("unit-test-secret")
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "candidate", "user", 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, expected 42", claims.UserID)
	}
	if claims.Username != "candidate" {
		t.Errorf("Username = %q, expected candidate", claims.Username)
	}
	if claims.Role != "user" {
		t.Errorf("Role = %q, expected user", claims.Role)
	}
}

func TestGenerateToken_DistinctPerUser(t *testing.T) {
	token1, _ := GenerateToken(1, "alice", "user", 24)
	token2, _ := GenerateToken(2, "bob", "user", 24)

	if token1 == token2 {
		t.Error("different users should produce different tokens")
	}
}

func TestParseToken_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"garbage",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalid {
		if _, err := ParseToken(token); err == nil {
			t.Errorf("ParseToken(%q) should return error", token)
		}
	}
}

func TestParseToken_RejectsForeignSecret(t *testing.T) {
	SetJWTSecret("issuer-secret")
	token, _ := GenerateToken(1, "candidate", "user", 24)

	SetJWTSecret("unit-test-secret")
	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken should fail for a token signed with another secret")
	}
}

func TestGenerateToken_Expiration(t *testing.T) {
	token, _ := GenerateToken(1, "candidate", "user", 2)
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	expiresAt := claims.ExpiresAt.Time
	if expiresAt.Before(time.Now()) {
		t.Error("token should not be expired immediately")
	}

	diff := expiresAt.Sub(time.Now().Add(2 * time.Hour))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration is off by more than a minute: %v", diff)
	}
}
