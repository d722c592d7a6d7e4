package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init initializes the default diagnostic logger.
func Init(verbose, noColor bool) {
	log.SetDefault(New(os.Stderr, verbose, noColor))
}

// New creates a diagnostic logger writing to w.
func New(w io.Writer, verbose, noColor bool) (logger *log.Logger) {
	logger = log.NewWithOptions(w,
		log.Options{
			ReportCaller:    verbose,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "UCBASIC",
		})

	logger.SetLevel(log.InfoLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	logger.SetColorProfile(termenv.ANSI256)
	if noColor {
		logger.SetColorProfile(termenv.Ascii)
	}

	return
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
