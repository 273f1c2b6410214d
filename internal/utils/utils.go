package utils

import (
	"log/slog"
	"os"
)

// Must stops the process on startup errors that leave nothing to run.
func Must(e error) {
	if e != nil {
		slog.Error("fatal", "err", e)
		os.Exit(1)
	}
}
