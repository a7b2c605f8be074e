package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret: []byte("test-secret-change-me"),
		Issuer: "test",
		TTL:    time.Hour,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "ops")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Operator != "ops" || claims.Subject != "ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.Allows(ScopeRooms) {
		t.Fatalf("default scope missing: %v", claims.Scopes)
	}
	if claims.Allows("rooms:write") {
		t.Fatalf("unexpected scope granted")
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := testConfig()

	other := testConfig()
	other.Secret = []byte("another-secret")
	foreign, _ := GenerateToken(other, "ops")

	wrongIssuer := testConfig()
	wrongIssuer.Issuer = "elsewhere"
	misissued, _ := GenerateToken(wrongIssuer, "ops")

	expiredCfg := testConfig()
	expiredCfg.TTL = -time.Minute
	expired, _ := GenerateToken(expiredCfg, "ops")

	noAudience, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"iss": "test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(cfg.Secret)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"wrong issuer": misissued,
		"expired":      expired,
		"no audience":  noAudience,
	}
	for name, token := range cases {
		if _, err := ValidateToken(cfg, token); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestDisabledConfig(t *testing.T) {
	cfg := &JWTConfig{}
	if _, err := GenerateToken(cfg, "ops"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := ValidateToken(nil, "x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
