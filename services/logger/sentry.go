package logsvc

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/user"
)

const sentryFlushTimeout = 2 * time.Second

// SentryLogger captures errors in Sentry, then logs to its sink.
// Debug, Info and Warn messages only go to the sink.
type SentryLogger struct {
	sink core.Logger
	hub  *sentry.Hub
}

var _ core.Logger = (*SentryLogger)(nil)

func NewSentryLogger(sink core.Logger, conf *core.Config) (*SentryLogger, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         conf.SentryDSN,
		Environment: conf.Env,
		Release:     conf.Build,
		ServerName:  conf.Server.Host,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing sentry")
	}
	return &SentryLogger{sink: sink, hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (l SentryLogger) Flush() {
	l.hub.Flush(sentryFlushTimeout)
}

func (l SentryLogger) capture(level sentry.Level, msg string, args []interface{}) {
	l.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		var captured bool
		for _, arg := range args {
			switch a := arg.(type) {
			case user.User:
				scope.SetUser(sentry.User{ID: a.ID, Email: a.Email, Username: a.FullName})
			case map[string]interface{}:
				scope.SetExtras(a)
			case error:
				if !captured {
					scope.SetExtra("message", msg)
					l.hub.CaptureException(a)
					captured = true
				}
			}
		}
		if !captured {
			l.hub.CaptureMessage(msg)
		}
	})
}

func (l SentryLogger) Debug(msg string, args ...interface{}) {
	l.sink.Debug(msg, args...)
}

func (l SentryLogger) Info(msg string, args ...interface{}) {
	l.sink.Info(msg, args...)
}

func (l SentryLogger) Warn(msg string, args ...interface{}) {
	l.sink.Warn(msg, args...)
}

func (l SentryLogger) Error(msg string, args ...interface{}) {
	l.capture(sentry.LevelError, msg, args)
	l.sink.Error(msg, args...)
}

func (l SentryLogger) Fatal(msg string, args ...interface{}) {
	l.capture(sentry.LevelFatal, msg, args)
	l.Flush()
	l.sink.Fatal(msg, args...)
}
