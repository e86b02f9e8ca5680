package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/treesync/pkg/errors"
)

// HandleFatalError prints err and exits. Friendly errors are printed on
// their own; other errors are printed with their full context so that they
// can be included in bug reports.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic logs the stack trace of a panic before exiting. It should be
// deferred at the top of main.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "treesync crashed: %v\n%s", r, debug.Stack())
		os.Exit(1)
	}
}
