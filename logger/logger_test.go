package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRedact(t *testing.T) {
	in := []interface{}{"user_id", 7, "password", "hunter2", "JWT_Token", "abc", "dangling"}
	got := redact(in)
	assert.Equal(t, []interface{}{"user_id", 7, "password", redacted, "JWT_Token", redacted, "dangling"}, got)
	assert.Equal(t, "hunter2", in[3], "input slice must not be modified")
}

func TestNew_Levels(t *testing.T) {
	l, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.sugar.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.sugar.Desugar().Core().Enabled(zapcore.WarnLevel))

	_, err = New("dev", "loud")
	assert.Error(t, err)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "api_key", "secret")
	l.Sync()
}
