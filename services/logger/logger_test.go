package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/user"
)

func newObservedLogger() (*ZapLogger, *observer.ObservedLogs) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	return newZapLogger(zap.New(obsCore), zap.NewAtomicLevelAt(zap.DebugLevel)), logs
}

func TestZapLogger_fields(t *testing.T) {
	logger, logs := newObservedLogger()

	usr := user.User{ID: "u1", Email: "staff@test.ru", Role: user.RoleStaff}
	err := errors.New("boom")
	logger.Error("request failed", err, usr, map[string]interface{}{"path": "/api/login"}, 42)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "request failed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "/api/login", ctx["path"])
	assert.Equal(t, map[string]string{"id": "u1", "email": "staff@test.ru", "role": "staff"}, ctx["user"])
	assert.Equal(t, []interface{}{42}, ctx["args"])
}

func TestZapLogger_levels(t *testing.T) {
	logger, logs := newObservedLogger()
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")

	var levels []zapcore.Level
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel}, levels)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		conf core.Config
		want interface{}
	}{
		{name: "debug", conf: core.Config{Debug: true, RollbarToken: "tok", LogLevel: "debug"}, want: &ZapLogger{}},
		{name: "no reporting", conf: core.Config{LogLevel: "lol"}, want: &ZapLogger{}},
		{name: "rollbar", conf: core.Config{RollbarToken: "tok", Env: "TEST"}, want: &RollbarLogger{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, flush, err := New(&tt.conf, "TEST")
			require.NoError(t, err)
			assert.IsType(t, tt.want, logger)
			flush()
		})
	}
}
