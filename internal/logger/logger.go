package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init installs the process-wide logger. Without verbose only warnings and
// errors are reported.
func Init(verbose, noColor bool) {
	log.SetDefault(New(os.Stderr, verbose, noColor))
}

// New builds a logger writing to w with the same options as Init.
func New(w io.Writer, verbose, noColor bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    verbose,
		ReportTimestamp: false,
		Prefix:          "TACVM",
		Level:           log.WarnLevel,
	})

	if verbose {
		l.SetLevel(log.DebugLevel)
	}

	l.SetColorProfile(termenv.ANSI256)
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}
	return l
}
