package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/ironlog/internal/logging"
	"github.com/cockroachdb/errors"
)

// NewLogger creates the application logger for level.
func NewLogger(level string) *slog.Logger {
	return logging.New(logging.ParseLevel(level))
}

// PrintSystemMessage prints a standardized system message.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// Describe renders err with its hints for terminal output.
func Describe(err error) string {
	msg := err.Error()
	for _, h := range errors.GetAllHints(err) {
		msg += "\n  hint: " + h
	}
	return msg
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	return nil
}
