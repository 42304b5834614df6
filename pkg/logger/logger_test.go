package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		logLevel string
		expected zapcore.Level
		wantErr  bool
	}{
		{logLevel: "debug", expected: zap.DebugLevel},
		{logLevel: "info", expected: zap.InfoLevel},
		{logLevel: "", expected: zap.InfoLevel},
		{logLevel: "warn", expected: zap.WarnLevel},
		{logLevel: "error", expected: zap.ErrorLevel},
		{logLevel: "plop", expected: zap.InfoLevel, wantErr: true},
	}

	for _, tc := range tests {
		level, err := ParseLevel(tc.logLevel)
		if tc.wantErr {
			assert.Error(t, err, tc.logLevel)
		} else {
			assert.NoError(t, err, tc.logLevel)
		}
		assert.Equal(t, tc.expected, level, tc.logLevel)
	}
}

func TestNew(t *testing.T) {
	l, err := New("warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	_, err = New("verbose")
	assert.Error(t, err)
}
