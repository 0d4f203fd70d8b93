package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID_Format(t *testing.T) {
	id := GenerateID("dev")

	assert.True(t, strings.HasPrefix(id, "dev_"), "ID should carry the prefix")
	// 9 random bytes -> 12 base64url chars
	assert.Len(t, id, len("dev_")+12)
	assert.NotEqual(t, id, GenerateID("dev"), "two IDs should differ")
}

func TestGenerateToken_URLSafe(t *testing.T) {
	token := GenerateToken(DefaultTokenBytes)

	// 24 random bytes -> 32 base64url chars
	require.Len(t, token, 32)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")
	assert.NotEqual(t, token, GenerateToken(DefaultTokenBytes))
}

func TestGenerateToken_DefaultsOnBadLength(t *testing.T) {
	token := GenerateToken(0)
	assert.Len(t, token, 32)
}

func TestGenerateCode_SixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code must be numeric: %q", code)
		}
	}
}
