// Package output provides terminal output utilities.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// logger is the package-level logger instance.
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
		TimeFormat:      "15:04:05",
	})
}

// LogConfig controls logger setup.
type LogConfig struct {
	// Verbose enables debug level, caller reporting and forces timestamps on.
	Verbose bool

	// Timestamps overrides timestamp display. Nil means on.
	Timestamps *bool
}

// SetupLogging configures the logger from cfg.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	timestamps := true
	if cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}
	if cfg.Verbose {
		timestamps = true
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// SetLogWriter redirects log output, for tests.
func SetLogWriter(w io.Writer) {
	logger.SetOutput(w)
}

// UnitLogger returns a child logger prefixed with the function name.
func UnitLogger(name string) *log.Logger {
	return logger.WithPrefix(StyleDim.Render("f:") + StyleNoun.Render(name))
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

// Println writes a plain line to stdout, bypassing the logger.
func Println(msg string) {
	fmt.Fprintln(os.Stdout, msg)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}
