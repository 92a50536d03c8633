package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength          = 16
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
)

// GenerateSalt returns a fresh random salt, hex-encoded. The salt is stored
// alongside the hash in its own column.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives an Argon2id key for the password and salt, hex-encoded.
func HashPassword(password, salt string) string {
	hash := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(hash)
}

// VerifyPassword compares the password against a stored hash in constant time.
func VerifyPassword(password, salt, encodedHash string) bool {
	if password == "" || encodedHash == "" {
		return false
	}

	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(encodedHash)) == 1
}
