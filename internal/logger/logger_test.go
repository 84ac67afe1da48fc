package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	assert.True(t, New("debug", "console").Core().Enabled(zap.DebugLevel))
	assert.False(t, New("info", "json").Core().Enabled(zap.DebugLevel))
	assert.False(t, New("error", "json").Core().Enabled(zap.WarnLevel))
}

func TestZapAdapter_FieldsAndError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"run_id": "r1"})

	l.WithError(errors.New("boom")).Warn("pricing failed", map[string]interface{}{"vendor": "Nerolac", "area": 100})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "r1", ctx["run_id"])
	assert.Equal(t, "Nerolac", ctx["vendor"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestToZapFields_Sorted(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
	assert.Nil(t, toZapFields(nil))
}

func TestNoOpAndTestLogger(t *testing.T) {
	NewNoOpLogger().Info("ignored", nil)
	NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": "v"})
}
