package launcher

import (
	"fmt"
	"io"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// verbosityLevels maps the numeric verbosity of the flags to logrus levels.
var verbosityLevels = []logrus.Level{
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

func verbosityLevel(v int) (logrus.Level, error) {
	if v < 0 || v >= len(verbosityLevels) {
		return 0, fmt.Errorf("log verbosity %d out of range [0, %d]", v, len(verbosityLevels)-1)
	}
	return verbosityLevels[v], nil
}

// setupLogging configures the standard logrus logger every package logs through.
// Hooks from an earlier call are replaced.
func setupLogging(cfg LoggingConfig, out io.Writer) error {
	level, err := verbosityLevel(cfg.Verbosity)
	if err != nil {
		return err
	}
	logger := logrus.StandardLogger()
	logger.SetLevel(level)
	logger.SetOutput(out)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	hooks := make(logrus.LevelHooks)
	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return fmt.Errorf("sentry hook: %w", err)
		}
		hook.Timeout = 5 * time.Second
		hooks.Add(hook)
	}
	logger.ReplaceHooks(hooks)
	return nil
}
