package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestNoneModeAcceptsAll(t *testing.T) {
	v, err := NewVerifier("", "")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	p, err := v.FromRequest(httptest.NewRequest("POST", "/", nil))
	if err != nil || p.Subject != "anonymous" {
		t.Fatalf("got %+v, %v", p, err)
	}
}

func TestHMACRoundTrip(t *testing.T) {
	v, err := NewVerifier("HMAC", "s3cret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	tok, err := v.Sign("ci", "Generator")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	p, err := v.FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest: %v", err)
	}
	if p.Subject != "ci" || p.Role != "generator" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestHMACRejects(t *testing.T) {
	v, _ := NewVerifier("hmac", "s3cret")
	other, _ := NewVerifier("hmac", "other")
	forged, _ := other.Sign("ci", "admin")
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ci", "exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "x"}).SignedString([]byte("s3cret"))

	for name, tok := range map[string]string{"forged": forged, "expired": expired, "nosub": noSub, "garbage": "a.b.c"} {
		if _, err := v.Verify(tok); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: want ErrUnauthorized, got %v", name, err)
		}
	}
	if _, err := v.FromRequest(httptest.NewRequest("POST", "/", nil)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("missing header: got %v", err)
	}
}

func TestUnknownMode(t *testing.T) {
	if _, err := NewVerifier("jwks", ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewVerifier("hmac", ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
