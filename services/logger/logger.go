// Package logsvc provides the application loggers: a zap sink, optionally decorated
// with Rollbar or Sentry error reporting.
package logsvc

import (
	"github.com/trezcool/drivingschool/core"
)

// New builds the logger named `name` from the configuration. Sentry wins over Rollbar when both
// are configured; error reporting stays off in debug mode.
// The returned func flushes buffered entries and must be called before exiting.
func New(conf *core.Config, name string) (core.Logger, func(), error) {
	zl, err := NewZapLogger(conf, name)
	if err != nil {
		return nil, nil, err
	}
	sync := func() { _ = zl.Sync() }

	switch {
	case conf.Debug:
		return zl, sync, nil
	case conf.SentryDSN != "":
		sl, err := NewSentryLogger(zl, conf)
		if err != nil {
			return nil, nil, err
		}
		return sl, func() { sl.Flush(); sync() }, nil
	case conf.RollbarToken != "":
		rl := NewRollbarLogger(zl, conf)
		rl.Enable(true)
		return rl, func() { rl.Wait(); sync() }, nil
	}
	return zl, sync, nil
}
