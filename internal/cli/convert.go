package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/batch"
	"github.com/mohammed-shakir/dxf2gml/internal/convert"
	"github.com/mohammed-shakir/dxf2gml/internal/core/config"
	"github.com/mohammed-shakir/dxf2gml/internal/logger"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|dir> [code]",
	Short: "Convert a drawing, or every drawing of a directory, to GML",
	Long: `Convert writes <name>.gml next to each source drawing.

For a directory every *.dxf directly inside it is converted independently;
a failing drawing does not stop the others but makes the command fail.
The code defaults to epsg_default (25830).`,
	Args:         RequireInputPath,
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "Drawings converted in parallel (default batch_workers)")
	cmd.Flags().Bool("outline", false, "Also write <name>.outline.dxf with the accepted parcels")
	cmd.Flags().Bool("geojson", false, "Also write <name>.geojson with the parcels in WGS84")
	cmd.Flags().Bool("strict-area", false, "Fail a drawing whose hatch fill area, net of holes, disagrees with its outer ring")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	codeArg := cfg.Code
	if len(args) > 1 {
		codeArg = args[1]
	}
	code, err := convert.ParseCode(codeArg)
	if err != nil {
		return err
	}

	opts, err := batchOptions(cmd, cfg)
	if err != nil {
		return err
	}
	opts.Code = code

	_, log := newLoggers(cfg, "convert", cmd.ErrOrStderr())
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	opts.Logger = log.With("request_id", logger.NewID())

	summary, err := batch.Run(ctx, args[0], opts)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)

	if failed := summary.Failed(); len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d drawing(s)", ErrConversionFailed, len(failed), len(summary.Results))
	}
	return nil
}

func batchOptions(cmd *cobra.Command, cfg config.Config) (batch.Options, error) {
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return batch.Options{}, err
	}
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}
	outline, _ := cmd.Flags().GetBool("outline")
	geo, _ := cmd.Flags().GetBool("geojson")
	strict := cfg.StrictArea
	if cmd.Flags().Changed("strict-area") {
		strict, _ = cmd.Flags().GetBool("strict-area")
	}
	return batch.Options{
		Workers: workers,
		Outline: outline,
		GeoJSON: geo,
		Convert: []convert.Option{
			convert.WithAreaTolerance(cfg.AreaAbsTolerance, cfg.AreaRelTolerance),
			convert.WithStrictArea(strict),
		},
	}, nil
}

// printSummary writes the per-drawing report in input order.
func printSummary(w io.Writer, s batch.Summary) {
	for _, r := range s.Results {
		fmt.Fprintf(w, "Processing file: %s\n", r.Path)
		for _, line := range r.Report {
			fmt.Fprintln(w, line)
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "Warning: %s\n", d.Message)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(w, "File generated: %s\n", r.Output)
		if r.Outline != "" {
			fmt.Fprintf(w, "Outline generated: %s\n", r.Outline)
		}
		if r.GeoJSON != "" {
			fmt.Fprintf(w, "GeoJSON generated: %s\n", r.GeoJSON)
		}
	}
}
