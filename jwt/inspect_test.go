package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims SessionClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("server-only-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestInspectDecodesWithoutKey(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, SessionClaims{
		Email: "user@test.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := Inspect("Bearer " + token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "user-42" || claims.Email != "user@test.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAtTime().Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, claims.ExpiresAtTime())
	}
	if claims.Expired(time.Now()) {
		t.Fatal("token should not be expired yet")
	}
	if !claims.Expired(exp.Add(time.Second)) {
		t.Fatal("token should be expired after exp")
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	if _, err := Inspect(""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, err := Inspect("not-a-jwt"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	token := signedToken(t, SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatal("token without exp should not expire")
	}
}
