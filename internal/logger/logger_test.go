package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		for _, format := range []string{"json", "console"} {
			l, err := New(tt.level, format)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want), "%s/%s", tt.level, format)
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1), "%s/%s", tt.level, format)
			}
		}
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Logger(&zapWrapper{l: zap.New(core)})

	l.WithFields(map[string]interface{}{"user_id": "u1"}).
		WithError(errors.New("boom")).
		Warn("store skipped", map[string]interface{}{"store_id": "s1"})
	l.Debug("no fields", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "store skipped", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "s1", fields["store_id"])
	assert.Equal(t, "boom", fields["error"])
	assert.Empty(t, entries[1].Context)
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	assert.NotPanics(t, func() {
		l.Info("ignored", map[string]interface{}{"k": 1})
		l.WithFields(nil).Error("ignored", nil)
	})
	assert.NoError(t, l.Sync())
}
