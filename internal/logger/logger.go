package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Options selects the log destination and verbosity.
type Options struct {
	File  string
	Level string
	// Stdout also copies every entry to standard output.
	Stdout bool
}

var writer io.Writer = os.Stdout

// Setup points Logrus at a rotating file (and optionally stdout) and
// returns the writer so the HTTP access log can share it.
func Setup(opts Options) io.Writer {
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}

	writer = rotator
	if opts.Stdout {
		writer = io.MultiWriter(rotator, os.Stdout)
	}

	logrus.SetOutput(writer)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(ParseLevel(opts.Level))
	return writer
}

// ParseLevel maps a level name to a Logrus level, defaulting to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Writer returns the destination configured by the last Setup call.
func Writer() io.Writer {
	return writer
}
