package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastHasher(allowPlaintext bool) *PasswordHasher {
	return &PasswordHasher{Iterations: 1000, AllowPlaintext: allowPlaintext}
}

func TestHash_Format(t *testing.T) {
	h := NewPasswordHasher(false)
	stored, err := h.Hash("correct horse")
	require.NoError(t, err)

	parts := strings.Split(stored, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "v1", parts[0])
	assert.Equal(t, "120000", parts[2])
	assert.NotContains(t, stored, "=")

	salt, err := b64.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Len(t, salt, saltSize)
	key, err := b64.DecodeString(parts[3])
	require.NoError(t, err)
	assert.Len(t, key, keySize)
}

func TestHash_EmptyPassword(t *testing.T) {
	_, err := fastHasher(false).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHash_SaltsDiffer(t *testing.T) {
	h := fastHasher(false)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_RoundTrip(t *testing.T) {
	h := fastHasher(false)
	for _, pw := range []string{"a", "password", "pässwörd with spaces", strings.Repeat("x", 200)} {
		stored, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, h.Verify(pw, stored), pw)
		assert.False(t, h.Verify(pw+"!", stored), pw)
		assert.False(t, h.Verify("", stored), pw)
	}
}

func TestVerify_UsesStoredIterations(t *testing.T) {
	stored, err := (&PasswordHasher{Iterations: 10}).Hash("pw")
	require.NoError(t, err)
	assert.True(t, NewPasswordHasher(false).Verify("pw", stored))
}

func TestVerify_MalformedCredential(t *testing.T) {
	h := fastHasher(false)
	for _, stored := range []string{"", "v1$", "v1$!!$100$abc", "v1$abc$notanumber$abc", "v1$abc$-5$abc", "v1$abc$100$"} {
		assert.False(t, h.Verify("pw", stored), stored)
	}
}

func TestVerify_Bcrypt(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	h := fastHasher(false)
	assert.True(t, h.Verify("secret", string(hashed)))
	assert.False(t, h.Verify("nope", string(hashed)))
	assert.True(t, h.NeedsRehash(string(hashed)))
}

func TestVerify_PlaintextFallback(t *testing.T) {
	assert.False(t, fastHasher(false).Verify("admin", "admin"))

	h := fastHasher(true)
	assert.True(t, h.Verify("admin", "admin"))
	assert.False(t, h.Verify("admin2", "admin"))
	assert.False(t, h.Verify("Admin", "admin"))
	assert.True(t, h.NeedsRehash("admin"))
}

func TestNeedsRehash_CurrentFormat(t *testing.T) {
	h := fastHasher(false)
	stored, err := h.Hash("pw")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(stored))
}
