package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/cache"
	"github.com/mohammed-shakir/dxf2gml/internal/cache/memo"
	"github.com/mohammed-shakir/dxf2gml/internal/cache/redisstore"
	"github.com/mohammed-shakir/dxf2gml/internal/convert"
	"github.com/mohammed-shakir/dxf2gml/internal/core/config"
	"github.com/mohammed-shakir/dxf2gml/internal/core/health"
	"github.com/mohammed-shakir/dxf2gml/internal/core/server"
	"github.com/mohammed-shakir/dxf2gml/internal/events"
	h3mapper "github.com/mohammed-shakir/dxf2gml/internal/mapper/h3"
	"github.com/mohammed-shakir/dxf2gml/internal/metrics"
	"github.com/mohammed-shakir/dxf2gml/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion endpoints over HTTP",
	Long: `Serve exposes POST /catastro/gml/ and POST /catastro/json/ taking a
multipart form with a "dxf" file and an optional "code" field.

Results are cached in memory, and in Redis when redis_addr is set. With
events_enabled every conversion is published to Kafka.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	_, log := newLoggers(cfg, "serve", cmd.ErrOrStderr())
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Build: metrics.BuildInfo{Version: version, Revision: commit, BuildDate: date},
		})
		metricsHandler = p.Handler()
	}

	svc, ready, closeAll, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAll()

	log.Info("starting dxf2gml",
		"addr", cfg.Addr,
		"version", version,
		"default_code", cfg.Code,
		"cache", cfg.CacheEnabled,
		"redis", cfg.RedisAddr != "",
		"events", cfg.EventsEnabled)

	return server.Run(ctx, cfg, log, server.Deps{
		Converter: svc,
		Metrics:   metricsHandler,
		Ready:     ready,
	})
}

// buildService wires the cache tiers and the event publisher configured in
// cfg around a conversion service. closeAll releases them.
func buildService(ctx context.Context, cfg config.Config, log *slog.Logger) (*service.Service, map[string]health.Pinger, func(), error) {
	ready := map[string]health.Pinger{}
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	deps := service.Deps{
		Options: convert.NewOptions(
			convert.WithAreaTolerance(cfg.AreaAbsTolerance, cfg.AreaRelTolerance),
			convert.WithStrictArea(cfg.StrictArea),
		),
		Logger: log,
	}

	if cfg.CacheEnabled {
		var l2 cache.Interface
		if cfg.RedisAddr != "" {
			rc, err := redisstore.New(ctx, cfg.RedisAddr,
				redisstore.WithReadTimeout(cfg.CacheOpTimeout),
				redisstore.WithWriteTimeout(cfg.CacheOpTimeout),
			)
			if err != nil {
				closeAll()
				return nil, nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
			}
			closers = append(closers, rc.Close)
			ready["redis"] = rc
			l2 = rc
		}
		deps.Cache = memo.New(memo.Config{
			Size:      cfg.CacheSize,
			TTL:       cfg.CacheTTL,
			OpTimeout: cfg.CacheOpTimeout,
		}, l2, log)
	}

	if cfg.EventsEnabled {
		pub, err := events.NewPublisher(eventsConfig(cfg), log)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, pub.Close)
		deps.Publisher = pub
		deps.Events = events.Builder{Mapper: h3mapper.New(), Res: cfg.H3Res}
	}

	return service.New(deps), ready, closeAll, nil
}

func eventsConfig(cfg config.Config) events.Config {
	return events.Config{
		Enabled: cfg.EventsEnabled,
		Brokers: events.SplitCSV(cfg.KafkaBrokers),
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}
}
