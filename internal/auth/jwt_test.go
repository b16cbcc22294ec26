package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret-key-for-tests", 24*time.Hour)
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager()

	tokenString, err := m.GenerateSession("user-1", true)
	if err != nil {
		t.Fatalf("GenerateSession failed: %v", err)
	}

	claims, err := m.ValidateSession(tokenString)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if !claims.IsGuest {
		t.Error("IsGuest not preserved")
	}
}

func TestValidateSessionWrongKey(t *testing.T) {
	tokenString, err := newTestManager().GenerateSession("user-1", false)
	if err != nil {
		t.Fatalf("GenerateSession failed: %v", err)
	}

	other := NewTokenManager("a-different-secret", 24*time.Hour)
	if _, err := other.ValidateSession(tokenString); err == nil {
		t.Fatal("expected validation to fail with a different key")
	}
}

func TestDecodeJoinSignedForm(t *testing.T) {
	m := newTestManager()

	tokenString, jti, expiresAt, err := m.GenerateJoin("journey-1")
	if err != nil {
		t.Fatalf("GenerateJoin failed: %v", err)
	}
	if time.Until(expiresAt) > JoinTokenTTL || time.Until(expiresAt) < JoinTokenTTL-time.Minute {
		t.Errorf("expiry %v not ~%v out", time.Until(expiresAt), JoinTokenTTL)
	}

	dec, err := m.DecodeJoin(tokenString)
	if err != nil {
		t.Fatalf("DecodeJoin failed: %v", err)
	}
	if dec.JourneyID != "journey-1" {
		t.Errorf("JourneyID = %q, want journey-1", dec.JourneyID)
	}
	if dec.JTI != jti {
		t.Errorf("JTI = %q, want %q", dec.JTI, jti)
	}
}

func TestDecodeJoinBareJTI(t *testing.T) {
	m := newTestManager()
	jti := uuid.New().String()

	dec, err := m.DecodeJoin(jti)
	if err != nil {
		t.Fatalf("DecodeJoin failed: %v", err)
	}
	if dec.JTI != jti {
		t.Errorf("JTI = %q, want %q", dec.JTI, jti)
	}
	// The bare form carries no journey binding.
	if dec.JourneyID != "" {
		t.Errorf("JourneyID = %q, want empty", dec.JourneyID)
	}
}

func TestDecodeJoinRejectsSessionToken(t *testing.T) {
	m := newTestManager()

	sessionToken, err := m.GenerateSession("user-1", false)
	if err != nil {
		t.Fatalf("GenerateSession failed: %v", err)
	}
	if _, err := m.DecodeJoin(sessionToken); err == nil {
		t.Fatal("a session token must not decode as a join token")
	}
}

func TestDecodeJoinGarbage(t *testing.T) {
	if _, err := newTestManager().DecodeJoin("not-a-token-or-jti"); err == nil {
		t.Fatal("expected garbage input to fail")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}
