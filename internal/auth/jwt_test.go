package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.GenerateClientToken("web-1")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ClientID != "web-1" || claims.Role != ClientRole {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestIssuer_WrongSecret(t *testing.T) {
	token, err := NewIssuer([]byte("one"), time.Hour).GenerateClientToken("web-1")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}
	if _, err := NewIssuer([]byte("two"), time.Hour).ValidateToken(token); err == nil {
		t.Error("expected signature error")
	}
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.GenerateClientToken("web-1")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}
	if _, err := NewIssuer([]byte("test-secret"), time.Minute).ValidateToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestIssuer_RejectsOtherRoles(t *testing.T) {
	secret := []byte("test-secret")
	claims := &JWTClaims{
		ClientID: "doll-1",
		Role:     "device",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewIssuer(secret, time.Hour).ValidateToken(token); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}
