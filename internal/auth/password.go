package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 16
	keyLength     = 32
	kdfIterations = 120_000
)

// HashPassword derives a storable credential from a plaintext password using
// PBKDF2-SHA256 with a fresh random salt. The result is
// hex(salt) + ":" + hex(key) so the salt travels with the derived hash.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, keyLength, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the derived key from the stored salt and compares
// it in constant time. A credential that cannot be parsed reports
// ErrCorruptCredential and never authenticates.
func VerifyPassword(credential, password string) error {
	saltHex, wantHex, ok := strings.Cut(credential, ":")
	if !ok {
		return ErrCorruptCredential
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLength {
		return ErrCorruptCredential
	}
	want, err := hex.DecodeString(wantHex)
	if err != nil || len(want) != keyLength {
		return ErrCorruptCredential
	}
	got := pbkdf2.Key([]byte(password), salt, kdfIterations, keyLength, sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
