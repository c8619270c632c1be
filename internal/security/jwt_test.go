package security

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func TestJWTManagerSignAndParse(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", testSecret)

	tok, err := mgr.SignAccessToken(42, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := mgr.ParseAccessToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", claims.Subject)
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", testSecret)

	tok, err := mgr.SignAccessToken(1, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", testSecret)
	other := NewJWTManager("iss", "aud", "zyxwvutsrqponmlkjihgfedcba654321")

	tok, err := mgr.SignAccessToken(1, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestJWTManagerRejectsWrongAudience(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", testSecret)
	other := NewJWTManager("iss", "other-aud", testSecret)

	tok, err := mgr.SignAccessToken(1, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong audience, got %v", err)
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", testSecret)
	if _, err := mgr.ParseAccessToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := VerifyPassword(hash, "s3cret-pass")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = VerifyPassword(hash, "wrong-pass")
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("not-an-argon-hash", "pw"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
