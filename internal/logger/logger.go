package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Options configures the default logger
type Options struct {
	Debug   bool   // log at debug level regardless of Level
	Level   string // "debug", "info", "warn" or "error"; warn when empty
	NoColor bool
	File    string // also append records to this file when set
}

// Init initializes the logger. The returned close function releases the
// log file, if one was opened.
func Init(opts Options) (func() error, error) {
	writers := []io.Writer{os.Stderr}
	closeFn := func() error { return nil }

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("cannot open log file %s: %w", opts.File, err)
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	log.SetDefault(New(io.MultiWriter(writers...), opts))
	return closeFn, nil
}

// New builds a logger with the widow prefix writing to w
func New(w io.Writer, opts Options) *log.Logger {
	l := log.NewWithOptions(w,
		log.Options{
			ReportCaller:    true,
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          "WIDOW",
		})

	level := log.WarnLevel
	if parsed, err := log.ParseLevel(opts.Level); err == nil && opts.Level != "" {
		level = parsed
	}
	if opts.Debug {
		level = log.DebugLevel
	}
	l.SetLevel(level)

	l.SetColorProfile(termenv.ANSI256)
	if opts.NoColor {
		l.SetColorProfile(termenv.Ascii)
	}
	return l
}
