package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPNRFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		pnr, err := NewPNR()
		require.NoError(t, err)
		assert.Len(t, pnr, 6)
		for _, ch := range pnr {
			assert.Contains(t, pnrAlphabet, string(ch))
		}
		seen[pnr] = true
	}
	// 200 draws from a 36^6 space should not collide
	assert.Len(t, seen, 200)
}

func TestNewHoldCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewHoldCode()
		require.NoError(t, err)
		assert.Len(t, code, 10)
		assert.True(t, strings.HasPrefix(code, "PB"))
		for _, ch := range code[2:] {
			assert.True(t, ch >= '0' && ch <= '9', "digit expected in %q", code)
		}
	}
}
