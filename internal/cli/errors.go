package cli

import (
	"errors"
	"strings"

	"github.com/mohammed-shakir/dxf2gml/internal/convert"
)

// Process exit codes.
const (
	ExitSuccess          = 0
	ExitConversionFailed = 1 // at least one drawing failed
	ExitUsageError       = 2 // missing args, invalid flags
	ExitPanic            = 3
	ExitConfigError      = 10 // bad code, config file or environment
)

var (
	// ErrInvalidConfig wraps configuration loading and validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConversionFailed is returned when a batch finished with failed drawings.
	ErrConversionFailed = errors.New("conversion failed")
)

// cobra reports usage problems as plain errors
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"missing required argument",
	"flag needs an argument",
}

// ExitCodeForError maps err to the process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, convert.ErrConfiguration):
		return ExitConfigError
	case errors.Is(err, ErrConversionFailed):
		return ExitConversionFailed
	}
	msg := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return ExitUsageError
		}
	}
	return ExitConversionFailed
}
