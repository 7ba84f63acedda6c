package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-value", time.Hour)
	token, err := issuer.Issue("42", "jane@example.com", "admin", "jane")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, ok := issuer.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "42", claims.UserID())
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "jane", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
}

func TestIssue_RequiresSubject(t *testing.T) {
	_, err := NewTokenIssuer("s", time.Hour).Issue("", "a@b.c", "user", "a")
	assert.Error(t, err)
}

func TestVerify_TamperedToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-value", time.Hour)
	token, err := issuer.Issue("7", "u@example.com", "user", "u")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]
		_, ok := issuer.Verify(tampered)
		assert.False(t, ok, "tampered byte %d accepted", i)
	}
}

func TestVerify_Malformed(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-value", time.Hour)
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "a.b.c.d", "...."} {
		_, ok := issuer.Verify(tok)
		assert.False(t, ok, tok)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-one", time.Hour).Issue("1", "a@b.c", "user", "a")
	require.NoError(t, err)
	_, ok := NewTokenIssuer("secret-two", time.Hour).Verify(token)
	assert.False(t, ok)
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-value", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue("1", "a@b.c", "user", "a")
	require.NoError(t, err)

	issuer.now = time.Now
	_, ok := issuer.Verify(token)
	assert.False(t, ok)
}

func TestVerify_RejectsMissingExpiry(t *testing.T) {
	claims := &Claims{Email: "a@b.c", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-value"))
	require.NoError(t, err)

	_, ok := NewTokenIssuer("test-secret-value", time.Hour).Verify(token)
	assert.False(t, ok)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-value"))
	require.NoError(t, err)

	_, ok := NewTokenIssuer("test-secret-value", time.Hour).Verify(token)
	assert.False(t, ok)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = NewTokenIssuer("test-secret-value", time.Hour).Verify(none)
	assert.False(t, ok)
}
