package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json production logger", func(t *testing.T) {
		l, err := New("warn", "json")
		require.NoError(t, err)
		assert.False(t, l.Desugar().Core().Enabled(-1)) // debug disabled
	})

	t.Run("console logger", func(t *testing.T) {
		l, err := New("debug", "console")
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New("loud", "json")
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New("info", "xml")
		assert.Error(t, err)
	})
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Infow("discarded", "key", "value")
}
