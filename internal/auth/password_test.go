package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	credential, err := HashPassword("Secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(credential, "Secret1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := VerifyPassword(credential, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHashProducesDistinctSalts(t *testing.T) {
	first, err := HashPassword("Secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("Secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct credentials for the same password")
	}
	if err := VerifyPassword(first, "Secret1"); err != nil {
		t.Fatalf("first credential does not verify: %v", err)
	}
	if err := VerifyPassword(second, "Secret1"); err != nil {
		t.Fatalf("second credential does not verify: %v", err)
	}
}

func TestHashCredentialShape(t *testing.T) {
	credential, err := HashPassword("Secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	saltHex, keyHex, ok := strings.Cut(credential, ":")
	if !ok {
		t.Fatalf("credential missing separator: %q", credential)
	}
	if len(saltHex) != saltLength*2 {
		t.Fatalf("unexpected salt length: %d", len(saltHex))
	}
	if len(keyHex) != keyLength*2 {
		t.Fatalf("unexpected key length: %d", len(keyHex))
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerifyRejectsCorruptCredential(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"abc:def",
		strings.Repeat("zz", saltLength) + ":" + strings.Repeat("00", keyLength),
		strings.Repeat("00", saltLength) + ":" + strings.Repeat("00", keyLength-1),
	}
	for _, credential := range cases {
		if err := VerifyPassword(credential, "Secret1"); !errors.Is(err, ErrCorruptCredential) {
			t.Fatalf("credential %q: expected ErrCorruptCredential, got %v", credential, err)
		}
	}
}
