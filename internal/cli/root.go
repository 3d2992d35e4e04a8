// Package cli holds the dxf2gml commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/core/config"
	"github.com/mohammed-shakir/dxf2gml/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dxf2gml <file|dir> [code]",
	Short: "Convert cadastral DXF drawings to INSPIRE cadastral parcel GML",
	Long: `dxf2gml reads the SOLID hatches of a DXF drawing, labels them with the
parcel references found in their layer names and writes a GML document
accepted by the Spanish cadastre.

Called with a path it behaves like "dxf2gml convert".

Exit Codes:
  0  - Success
  1  - Conversion failed (at least one drawing)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or coordinate system code`,
	Args:         RequirePathAndCode,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runConvert(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", ".", "Directory holding dxf2gml.yaml and .env")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	addConvertFlags(rootCmd)
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); strings.TrimSpace(lvl) != "" {
		cfg.LogLevel = lvl
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLoggers builds the zerolog base for a command and its slog bridge.
func newLoggers(cfg config.Config, command string, out io.Writer) (*zerolog.Logger, *slog.Logger) {
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Command:   command,
		Component: "cli",
	}, out)
	return &zl, logger.NewSlog(&zl)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
