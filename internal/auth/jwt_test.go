package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	a, err := NewAuthenticator("test-secret")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	token, expiresAt, err := a.GenerateToken("client-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("token already expired at issue time")
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ClientID != "client-123" {
		t.Errorf("ClientID = %q, want client-123", claims.ClientID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer, _ := NewAuthenticator("secret-a")
	verifier, _ := NewAuthenticator("secret-b")

	token, _, err := issuer.GenerateToken("client-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("ValidateToken() accepted a token signed with a different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	a, _ := NewAuthenticator("test-secret")
	if _, err := a.ValidateToken("not-a-token"); err == nil {
		t.Fatal("ValidateToken() accepted garbage input")
	}
}

func TestNewAuthenticatorEmptySecret(t *testing.T) {
	if _, err := NewAuthenticator(""); err == nil {
		t.Fatal("NewAuthenticator() accepted an empty secret")
	}
}
