package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pa55", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pa55", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-pa55"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	// out-of-range costs fall back to the bcrypt default instead of
	// failing user creation
	hash, err := HashPassword("s3cret-pa55", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret-pa55"))
}
