package utils

import (
	"regexp"
	"testing"

	"github.com/rafflehub/raffle-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600},
	}
}

func TestGenerateTicketNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{16}$`)

	number, err := GenerateTicketNumber()
	if err != nil {
		t.Fatalf("GenerateTicketNumber() error = %v", err)
	}
	if !pattern.MatchString(number) {
		t.Errorf("ticket number %q does not match expected format", number)
	}
}

func TestGenerateTicketNumberUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		number, err := GenerateTicketNumber()
		if err != nil {
			t.Fatalf("GenerateTicketNumber() error = %v", err)
		}
		if seen[number] {
			t.Fatalf("duplicate ticket number generated: %s", number)
		}
		seen[number] = true
	}
}

func TestGenerateCreatorSecretUniqueness(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		secret, err := GenerateCreatorSecret()
		if err != nil {
			t.Fatalf("GenerateCreatorSecret() error = %v", err)
		}
		if !pattern.MatchString(secret) {
			t.Fatalf("creator secret %q does not match expected format", secret)
		}
		if seen[secret] {
			t.Fatalf("duplicate creator secret generated: %s", secret)
		}
		seen[secret] = true
	}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateJWT("admin", "admin", cfg)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT(token, cfg)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if claims["username"] != "admin" {
		t.Errorf("expected username claim 'admin', got %v", claims["username"])
	}
	if claims["role"] != "admin" {
		t.Errorf("expected role claim 'admin', got %v", claims["role"])
	}
}

func TestJWTWrongSecretRejected(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateJWT("admin", "admin", cfg)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	other := &config.Config{JWT: config.JWTConfig{Secret: "other-secret", ExpiresIn: 3600}}
	if _, err := ValidateJWT(token, other); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestJWTGarbageRejected(t *testing.T) {
	if _, err := ValidateJWT("not-a-token", testConfig()); err == nil {
		t.Error("expected validation to fail for a malformed token")
	}
}
