package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the parcels of conversion events read from Kafka",
	Long: `Watch joins kafka_group_id on kafka_topic and prints one line per
converted parcel: time, drawing, reference, area, H3 cell and WKT.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	watchCmd.Flags().Bool("from-beginning", false, "Start from the oldest retained event when the group has no offset")
	watchCmd.Flags().Bool("wkt", false, "Include the parcel WKT")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	zl, log := newLoggers(cfg, "watch", cmd.ErrOrStderr())

	ecfg := eventsConfig(cfg)
	ecfg.Enabled = true
	ecfg.InitialOffsetOldest, _ = cmd.Flags().GetBool("from-beginning")
	withWKT, _ := cmd.Flags().GetBool("wkt")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := events.NewConsumer(ecfg, log, zl, printParcels(cmd.OutOrStdout(), withWKT))
	return c.Start(ctx)
}

// printParcels returns a handler writing one tab separated line per parcel.
func printParcels(w io.Writer, withWKT bool) events.Handler {
	return func(_ context.Context, ev events.ParcelsConverted) error {
		for _, p := range ev.Parcels {
			line := fmt.Sprintf("%s\t%s\t%s\t%.4f\t%s",
				ev.TS.UTC().Format(time.RFC3339), ev.Source, p.Reference, p.Area, p.Cell)
			if withWKT {
				line += "\t" + p.WKT
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}
