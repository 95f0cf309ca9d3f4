// Package auth verifies bearer tokens guarding the write endpoints.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
)

// Modes.
const (
	ModeNone = "none"
	ModeHMAC = "hmac"
)

var ErrUnauthorized = errors.New("unauthorized")

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Role    string
}

// Verifier checks HS256 JWTs. In ModeNone every request is accepted as an
// anonymous principal.
type Verifier struct {
	Mode      string
	Secret    []byte
	RoleClaim string
}

func NewVerifier(mode, secret string) (*Verifier, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", ModeNone:
		return &Verifier{Mode: ModeNone}, nil
	case ModeHMAC:
		if secret == "" {
			return nil, errors.New("auth: hmac mode needs a secret")
		}
		return &Verifier{Mode: ModeHMAC, Secret: []byte(secret), RoleClaim: "role"}, nil
	default:
		return nil, fmt.Errorf("auth: unsupported mode %q", mode)
	}
}

// Verify parses and validates token, including exp/nbf when present.
func (v *Verifier) Verify(token string) (Principal, error) {
	if v.Mode == ModeNone {
		return Principal{Subject: "anonymous"}, nil
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims[v.RoleClaim].(string)
	if sub == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", ErrUnauthorized)
	}
	return Principal{Subject: sub, Role: strings.ToLower(role)}, nil
}

// FromRequest verifies the Authorization bearer token of r.
func (v *Verifier) FromRequest(r *http.Request) (Principal, error) {
	if v.Mode == ModeNone {
		return v.Verify("")
	}
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return Principal{}, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	return v.Verify(token)
}

// Sign issues an HS256 token; used by tooling and tests.
func (v *Verifier) Sign(subject, role string) (string, error) {
	claims := jwt.MapClaims{"sub": subject, v.RoleClaim: role}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
