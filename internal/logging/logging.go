// Package logging builds the logrus logger shared by the CLI and the
// processor.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias so callers need not import logrus for plain logging
type Fields = logrus.Fields

// Options configures New
type Options struct {
	Level   string
	File    string
	NoColor bool
	Caller  bool
	Output  io.Writer
}

// New creates a logger writing to stderr and, when File is set, to a
// rotating log file
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = l
	}
	logger.SetLevel(level)

	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColor,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(opts.Caller)
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
