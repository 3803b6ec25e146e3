package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_Deterministic(t *testing.T) {
	salt, err := RandBytes(SaltLen)
	require.NoError(t, err)

	h1 := HashPassword([]byte("s3cret"), salt)
	h2 := HashPassword([]byte("s3cret"), salt)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 32)
}

func TestVerifyPassword(t *testing.T) {
	salt, err := RandBytes(SaltLen)
	require.NoError(t, err)
	h := HashPassword([]byte("correct horse"), salt)

	require.True(t, VerifyPassword([]byte("correct horse"), salt, h))
	require.False(t, VerifyPassword([]byte("wrong"), salt, h))

	otherSalt, err := RandBytes(SaltLen)
	require.NoError(t, err)
	require.False(t, VerifyPassword([]byte("correct horse"), otherSalt, h))
}

func TestNewChallengeToken_Unique(t *testing.T) {
	a, err := NewChallengeToken()
	require.NoError(t, err)
	b, err := NewChallengeToken()
	require.NoError(t, err)
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
}

func TestObfuscate_RoundTrip(t *testing.T) {
	out := Obfuscate("hunter2")
	require.NotEqual(t, "hunter2", out)

	back, err := Deobfuscate(out)
	require.NoError(t, err)
	require.Equal(t, "hunter2", back)

	_, err = Deobfuscate("%%% not base64 %%%")
	require.Error(t, err)
}
