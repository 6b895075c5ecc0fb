package evolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitValidLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", ""} {
		require.NoError(t, Init(lvl))
	}
	// restore default for other tests
	require.NoError(t, Init("info"))
}

func TestInitInvalidLevel(t *testing.T) {
	err := Init("verbose")
	assert.Error(t, err)
}

func TestAcceptGating(t *testing.T) {
	assert.True(t, accept(LevelDebug, LevelError))
	assert.True(t, accept(LevelInfo, LevelInfo))
	assert.False(t, accept(LevelInfo, LevelDebug))
	assert.True(t, accept(LevelWarn, LevelError))
	assert.False(t, accept(LevelWarn, LevelInfo))
	assert.True(t, accept(LevelError, LevelError))
	assert.False(t, accept(LevelError, LevelWarn))
}
