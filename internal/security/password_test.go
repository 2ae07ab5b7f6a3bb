package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_RandomSalt(t *testing.T) {
	first, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	second, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "two hashes of the same password must differ")
	require.True(t, VerifyPassword("correct horse battery staple", first))
	require.True(t, VerifyPassword("correct horse battery staple", second))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	require.False(t, VerifyPassword("s3cret-pass!", hash))
	require.False(t, VerifyPassword("", hash))
	require.False(t, VerifyPassword("s3cret-pass", "not-a-bcrypt-hash"))
}
