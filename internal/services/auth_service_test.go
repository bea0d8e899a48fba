package services

import (
	"strings"
	"testing"
)

func TestNewAuthService_GeneratesKey(t *testing.T) {
	svc := NewAuthService("")

	if svc == nil {
		t.Fatal("expected non-nil AuthService")
	}
	if len(svc.encryptionKey) != 32 {
		t.Errorf("expected 32-byte key, got %d bytes", len(svc.encryptionKey))
	}
}

func TestNewAuthService_UsesConfiguredKey(t *testing.T) {
	testKey := "12345678901234567890123456789012" // 32 bytes

	svc := NewAuthService(testKey)

	if string(svc.encryptionKey) != testKey {
		t.Errorf("expected key %q, got %q", testKey, string(svc.encryptionKey))
	}
}

func TestNewAuthService_IgnoresShortKey(t *testing.T) {
	svc := NewAuthService("tooshort")

	if len(svc.encryptionKey) != 32 {
		t.Errorf("expected 32-byte generated key, got %d bytes", len(svc.encryptionKey))
	}
	if string(svc.encryptionKey) == "tooshort" {
		t.Error("should not use short key")
	}
}

func TestSealOpenSessionID_RoundTrip(t *testing.T) {
	svc := NewAuthService("")
	id := "2f7c1a4e-3d5b-4c6a-9e8f-0a1b2c3d4e5f"

	sealed, err := svc.SealSessionID(id)
	if err != nil {
		t.Fatalf("SealSessionID failed: %v", err)
	}
	if sealed == "" || strings.Contains(sealed, id) {
		t.Fatal("sealed value must be non-empty and opaque")
	}

	opened, err := svc.OpenSessionID(sealed)
	if err != nil {
		t.Fatalf("OpenSessionID failed: %v", err)
	}
	if opened != id {
		t.Errorf("got %q, want %q", opened, id)
	}
}

func TestSealSessionID_RejectsInvalidIDs(t *testing.T) {
	svc := NewAuthService("")

	if _, err := svc.SealSessionID(""); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := svc.SealSessionID(strings.Repeat("x", 65)); err == nil {
		t.Error("expected error for oversized id")
	}
}

func TestOpenSessionID_InvalidBase64(t *testing.T) {
	svc := NewAuthService("")

	if _, err := svc.OpenSessionID("not-valid-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestOpenSessionID_InvalidCiphertext(t *testing.T) {
	svc := NewAuthService("")

	if _, err := svc.OpenSessionID("dGVzdA=="); err == nil {
		t.Error("expected error for invalid ciphertext")
	}
}

func TestOpenSessionID_WrongKey(t *testing.T) {
	svc1 := NewAuthService("")
	svc2 := NewAuthService("")

	sealed, err := svc1.SealSessionID("session-1")
	if err != nil {
		t.Fatalf("SealSessionID failed: %v", err)
	}

	if _, err := svc2.OpenSessionID(sealed); err == nil {
		t.Error("expected error when opening with wrong key")
	}
}

func TestSealSessionID_ProducesDifferentOutput(t *testing.T) {
	svc := NewAuthService("")

	a, _ := svc.SealSessionID("session-1")
	b, _ := svc.SealSessionID("session-1")

	if a == b {
		t.Error("expected different sealed outputs due to random nonce")
	}
}
