package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequirePathAndCode accepts an optional input path followed by an optional
// coordinate system code.
func RequirePathAndCode(cmd *cobra.Command, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("accepts at most 2 arg(s), received %d", len(args))
	}
	return nil
}

// RequireInputPath validates that a drawing or directory is given, with an
// optional code after it.
func RequireInputPath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <file|dir>

Usage: %s

Example:
  %s ./parcels 25830`, cmd.UseLine(), cmd.CommandPath())
	}
	return RequirePathAndCode(cmd, args)
}
