// Package logger owns the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/fieldlog/internal/constants"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	rotator *lumberjack.Logger
)

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr receives a copy of every entry in debug mode; os.Stderr when nil.
	Stderr io.Writer
}

// Init points the global logger at a rotating file under ConfigDir/logs.
// Info and above go to the file; debug mode lowers the level to Debug and
// mirrors output to stderr with caller information.
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, constants.LogDirName)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}

	if rotator != nil {
		_ = rotator.Close()
	}
	rotator = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.LogFileName),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	level := log.InfoLevel
	var writer io.Writer = rotator
	if cfg.Debug {
		level = log.DebugLevel
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writer = io.MultiWriter(stderr, rotator)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Path returns the active log file, or "" before Init.
func Path() string {
	if rotator == nil {
		return ""
	}
	return rotator.Filename
}

// Close flushes and closes the log file.
func Close() error {
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// With returns a sub-logger carrying the given key/value pairs. Before Init it
// returns a logger that discards everything.
func With(keyvals ...any) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
