package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestGlobalLoggerDefaultsToNop(t *testing.T) {
	require.NotNil(t, GlobalLogger)
	assert.NotPanics(t, func() {
		GlobalLogger.Printf("hello %s", "world")
		GlobalLogger.Errorf("boom %d", 1)
	})
}

func TestFromZapWritesEntries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.With("key", "rooms:all").Errorf("failed to set key: %v", "timeout")
	l.Debugf("debug %d", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "failed to set key: timeout", entries[0].Message)
	assert.Equal(t, "rooms:all", entries[0].ContextMap()["key"])
	assert.Equal(t, zap.DebugLevel, entries[1].Level)
}

func TestNewProductionLogger(t *testing.T) {
	l, err := New("error", "production")
	require.NoError(t, err)
	assert.False(t, l.Zap().Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Zap().Core().Enabled(zap.ErrorLevel))
}
