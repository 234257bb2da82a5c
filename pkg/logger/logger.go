// Package logger provides a simple logging interface and implementation
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the logging interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// logger implements the Logger interface on top of zerolog, optionally
// rotating file output through lumberjack when LOG_FILE is set.
type logger struct {
	zl zerolog.Logger
}

// New creates a new logger instance. LOG_LEVEL follows the teacher's
// debug/info/warn/error vocabulary; LOG_FILE, when set, rotates output via
// lumberjack instead of writing to stdout only.
func New() Logger {
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}}
	if path := os.Getenv("LOG_FILE"); path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	zl := zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	return &logger{zl: zl}
}

func parseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *logger) Debug(v ...interface{})                { l.zl.Debug().Msg(fmt.Sprint(v...)) }
func (l *logger) Debugf(format string, v ...interface{}) { l.zl.Debug().Msg(fmt.Sprintf(format, v...)) }
func (l *logger) Info(v ...interface{})                 { l.zl.Info().Msg(fmt.Sprint(v...)) }
func (l *logger) Infof(format string, v ...interface{})  { l.zl.Info().Msg(fmt.Sprintf(format, v...)) }
func (l *logger) Warn(v ...interface{})                 { l.zl.Warn().Msg(fmt.Sprint(v...)) }
func (l *logger) Warnf(format string, v ...interface{})  { l.zl.Warn().Msg(fmt.Sprintf(format, v...)) }
func (l *logger) Error(v ...interface{})                { l.zl.Error().Msg(fmt.Sprint(v...)) }
func (l *logger) Errorf(format string, v ...interface{}) { l.zl.Error().Msg(fmt.Sprintf(format, v...)) }
func (l *logger) Fatal(v ...interface{})                { l.zl.Fatal().Msg(fmt.Sprint(v...)) }
func (l *logger) Fatalf(format string, v ...interface{}) { l.zl.Fatal().Msg(fmt.Sprintf(format, v...)) }
