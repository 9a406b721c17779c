// Package logging configures the process-wide logrus logger and exposes
// package-level helpers so callers can import it as `log`.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	setupOnce sync.Once
	outputMu  sync.Mutex
	logFile   *lumberjack.Logger
)

// Fields is an alias so callers do not need to import logrus directly.
type Fields = logrus.Fields

// SetupBaseLogger installs the text formatter and writes to stdout.
// Safe to call more than once.
func SetupBaseLogger() {
	setupOnce.Do(func() {
		logrus.SetOutput(os.Stdout)
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		logrus.SetLevel(logrus.InfoLevel)
	})
}

// ConfigureLogOutput switches the output between stdout and a rotated file
// under dir. An empty dir defaults to ./logs.
func ConfigureLogOutput(toFile bool, dir string) error {
	outputMu.Lock()
	defer outputMu.Unlock()

	if !toFile {
		logrus.SetOutput(os.Stdout)
		closeLogFileLocked()
		return nil
	}

	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	closeLogFileLocked()
	logFile = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "oc-bridge.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, logFile))
	return nil
}

func closeLogFileLocked() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// SetDebug toggles debug level logging.
func SetDebug(enabled bool) {
	if enabled {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return logrus.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput redirects log output. Used by the stdio front end, which must
// keep stdout free for protocol frames.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	logrus.SetOutput(w)
}

func Debugf(format string, args ...any) { logrus.Debugf(format, args...) }
func Infof(format string, args ...any)  { logrus.Infof(format, args...) }
func Warnf(format string, args ...any)  { logrus.Warnf(format, args...) }
func Errorf(format string, args ...any) { logrus.Errorf(format, args...) }
func Fatalf(format string, args ...any) { logrus.Fatalf(format, args...) }

func Debug(args ...any) { logrus.Debug(args...) }
func Info(args ...any)  { logrus.Info(args...) }
func Warn(args ...any)  { logrus.Warn(args...) }
func Error(args ...any) { logrus.Error(args...) }

func WithError(err error) *logrus.Entry             { return logrus.WithError(err) }
func WithField(key string, value any) *logrus.Entry { return logrus.WithField(key, value) }
func WithFields(fields Fields) *logrus.Entry        { return logrus.WithFields(fields) }
