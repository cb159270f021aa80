package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeEnv(t *testing.T) {
	const key = "_SURVEYGUY_TEST_SAFEENV"
	t.Setenv(key, "")
	assert.Equal(t, "fallback", SafeEnv(key, "fallback"))
	t.Setenv(key, "value")
	assert.Equal(t, "value", SafeEnv(key, "fallback"))
}

func TestSafeEnvBlankIsUnset(t *testing.T) {
	const key = "_SURVEYGUY_TEST_SAFEENV_BLANK"
	t.Setenv(key, "   ")
	assert.Equal(t, "fallback", SafeEnv(key, "fallback"))
	t.Setenv(key, " v ")
	assert.Equal(t, "v", SafeEnv(key, "fallback"))
}
