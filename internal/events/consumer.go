package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	mylog "github.com/mohammed-shakir/dxf2gml/internal/logger"
)

// Handler receives each distinct valid event once.
type Handler func(ctx context.Context, ev ParcelsConverted) error

// Consumer reads ParcelsConverted events with a consumer group.
type Consumer struct {
	cfg     Config
	logger  *slog.Logger
	handle  Handler
	zlog    *zerolog.Logger
	handler *eventHandler
}

func NewConsumer(cfg Config, logger *slog.Logger, zl *zerolog.Logger, handle Handler) *Consumer {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if zl == nil {
		nop := zerolog.Nop()
		zl = &nop
	}
	zlog := mylog.FromContext(mylog.WithComponent(context.Background(), "events_consumer"), zl)
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		handle: handle,
		zlog:   zlog,
		handler: &eventHandler{
			handle: handle,
			seen:   newDedupe(cfg.DedupeSize),
			zlog:   zlog,
			logger: logger,
		},
	}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.handle == nil {
		return errors.New("events: consumer has no handler")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("events: create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	c.logger.Info("events consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("events consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, c.handler); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.zlog.Error().Err(err).
					Strs("brokers", c.cfg.Brokers).
					Str("topic", c.cfg.Topic).
					Msg("kafka consumer error")
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
	}
}

// ProcessOne runs one message through the group handler without a session.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return c.handler.process(ctx, msg)
}
