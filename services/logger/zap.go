package logsvc

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/user"
)

// ZapLogger writes structured logs. It is the sink of every other logger of this package.
type ZapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	Level zap.AtomicLevel
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config, name string) (*ZapLogger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(conf.LogLevel))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var cfg zap.Config
	if conf.Env == "PROD" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	base = base.Named(name).With(zap.String("build", conf.Build))
	return newZapLogger(base, lvl), nil
}

func newZapLogger(base *zap.Logger, lvl zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{base: base, sugar: base.Sugar(), Level: lvl}
}

func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

// expected fmt: msg | error, map[string]interface{}, user.User
func fields(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, 2*len(args))
	var extra []interface{}
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			kvs = append(kvs, "user", map[string]string{"id": a.ID, "email": a.Email, "role": a.Role})
		case error:
			kvs = append(kvs, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				kvs = append(kvs, k, v)
			}
		default:
			extra = append(extra, a)
		}
	}
	if len(extra) > 0 {
		kvs = append(kvs, "args", extra)
	}
	return kvs
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, fields(args)...)
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, fields(args)...)
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, fields(args)...)
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, fields(args)...)
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, fields(args)...)
}
