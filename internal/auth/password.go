package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	credentialVersion = "v1"
	saltSize          = 16
	keySize           = 32
	// DefaultIterations is the PBKDF2 round count for newly hashed passwords.
	DefaultIterations = 120000
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password is required")

var b64 = base64.RawURLEncoding

// PasswordHasher turns plaintext passwords into stored credentials and back.
type PasswordHasher struct {
	Iterations int
	// AllowPlaintext keeps accepting rows written before passwords were hashed.
	// Those rows are rehashed on the next successful login.
	AllowPlaintext bool
}

// NewPasswordHasher returns a hasher with the default iteration count.
func NewPasswordHasher(allowPlaintext bool) *PasswordHasher {
	return &PasswordHasher{Iterations: DefaultIterations, AllowPlaintext: allowPlaintext}
}

// Hash encodes password as v1$salt$iterations$key.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	iterations := h.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	return strings.Join([]string{
		credentialVersion,
		b64.EncodeToString(salt),
		strconv.Itoa(iterations),
		b64.EncodeToString(key),
	}, "$"), nil
}

// Verify reports whether password matches the stored credential.
func (h *PasswordHasher) Verify(password, stored string) bool {
	if stored == "" {
		return false
	}
	if parts := strings.Split(stored, "$"); len(parts) == 4 && parts[0] == credentialVersion {
		return verifyPBKDF2(password, parts[1], parts[2], parts[3])
	}
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	if !h.AllowPlaintext {
		return false
	}
	// ConstantTimeCompare returns 0 immediately on length mismatch.
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

// NeedsRehash reports whether stored predates the current credential format.
func (h *PasswordHasher) NeedsRehash(stored string) bool {
	return !strings.HasPrefix(stored, credentialVersion+"$")
}

func verifyPBKDF2(password, encSalt, encIterations, encKey string) bool {
	salt, err := b64.DecodeString(encSalt)
	if err != nil {
		return false
	}
	iterations, err := strconv.Atoi(encIterations)
	if err != nil || iterations <= 0 {
		return false
	}
	expected, err := b64.DecodeString(encKey)
	if err != nil || len(expected) == 0 {
		return false
	}
	computed := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
