package auth

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"acadpulse/backend/internal/shared"
)

func testService() *Service {
	return &Service{
		config: &shared.Config{
			Security: shared.SecurityConfig{
				JWTSecret:          "unit-test-secret",
				JWTExpirationHours: 24,
				BCryptCost:         bcrypt.MinCost,
			},
		},
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	s := testService()

	token, expiresAt, err := s.GenerateToken("user_123", shared.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}
	if time.Until(expiresAt) < 23*time.Hour {
		t.Errorf("Expected ~24h expiry, got %v", time.Until(expiresAt))
	}

	claims, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != "user_123" {
		t.Errorf("Expected user_123, got %s", claims.UserID)
	}
	if claims.Role != shared.RoleStudent {
		t.Errorf("Expected role student, got %s", claims.Role)
	}
	if claims.Issuer != "acadpulse" {
		t.Errorf("Expected issuer acadpulse, got %s", claims.Issuer)
	}
}

func TestTokensAreUnique(t *testing.T) {
	s := testService()

	t1, _, err := s.GenerateToken("user_1", shared.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	t2, _, err := s.GenerateToken("user_1", shared.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if t1 == t2 {
		t.Error("Tokens generated back-to-back must carry distinct jti claims")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	s := testService()
	token, _, err := s.GenerateToken("user_1", shared.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	other := testService()
	other.config.Security.JWTSecret = "different-secret"

	if _, err := other.ParseToken(token); err == nil {
		t.Error("Expected signature verification to fail with a different secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	s := testService()

	for _, bad := range []string{"", "not.a.jwt", strings.Repeat("x", 400)} {
		if _, err := s.ParseToken(bad); err == nil {
			t.Errorf("Expected parse failure for %q", bad)
		}
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	s := testService()

	hash, err := s.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("Password stored in plaintext")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")); err != nil {
		t.Errorf("Hash does not verify against original password: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")); err == nil {
		t.Error("Hash verified against wrong password")
	}
}
