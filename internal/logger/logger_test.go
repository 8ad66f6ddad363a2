package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerIsNoop(t *testing.T) {
	Set(nil)
	assert.NotNil(t, Logger)
	assert.NotPanics(t, func() {
		Infow("ignored", "key", "value")
	})
}

func TestStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core).Sugar())
	defer Set(nil)

	Debugw("registered interface", "name", "Speaker")
	Warnw("registry lock recovered")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "registered interface", entries[0].Message)
		assert.Equal(t, "Speaker", entries[0].ContextMap()["name"])
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
	}
}

func TestInitialize(t *testing.T) {
	defer Set(nil)
	assert.NoError(t, Initialize(true, false))
	assert.True(t, Logger.Desugar().Core().Enabled(zap.DebugLevel))

	assert.NoError(t, Initialize(false, true))
	assert.False(t, Logger.Desugar().Core().Enabled(zap.DebugLevel))
}
