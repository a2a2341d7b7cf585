package log

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

// SetFormatter sets the formatter used for normal runs. Entry fields such as
// the error and server are printed after the message.
func SetFormatter(logger *logrus.Logger) {
	logger.SetReportCaller(false)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05",
		QuoteEmptyFields: true,
	})
}

// SetDebugFormatter annotates every entry with its caller.
func SetDebugFormatter(logger *logrus.Logger) {
	logger.SetReportCaller(true)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableLevelTruncation: true,
		FullTimestamp:          true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	})
}

// Configure applies the level and matching formatter. debug wins over level.
func Configure(logger *logrus.Logger, out io.Writer, level string, debug bool) error {
	if out != nil {
		logger.SetOutput(out)
	}
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		SetDebugFormatter(logger)
		return nil
	}
	SetFormatter(logger)
	if level == "" {
		logger.SetLevel(logrus.InfoLevel)
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)
	return nil
}
