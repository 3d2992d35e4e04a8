package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/dxf2gml/internal/core/observability"
)

// Publisher sends events synchronously. The zero value and a nil *Publisher
// are disabled and drop everything.
type Publisher struct {
	topic  string
	prod   sarama.SyncProducer
	logger *slog.Logger
}

// NewPublisher dials the brokers in cfg. A disabled config returns a no-op
// publisher.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{}, nil
	}
	cfg = cfg.WithDefaults()

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Retry.Max = 3

	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("events: create sync producer: %w", err)
	}
	return NewPublisherWithProducer(prod, cfg.Topic, logger), nil
}

func NewPublisherWithProducer(prod sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{topic: topic, prod: prod, logger: logger}
}

func (p *Publisher) Enabled() bool { return p != nil && p.prod != nil }

// Publish validates ev and sends it keyed by its source name so events of
// one drawing stay ordered.
func (p *Publisher) Publish(ctx context.Context, ev ParcelsConverted) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ev.Validate(); err != nil {
		obs.IncEventPublished(err)
		return fmt.Errorf("events: invalid event: %w", err)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		obs.IncEventPublished(err)
		return fmt.Errorf("events: marshal: %w", err)
	}
	part, off, err := p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Source),
		Value: sarama.ByteEncoder(b),
	})
	obs.IncEventPublished(err)
	if err != nil {
		return fmt.Errorf("events: send to %s: %w", p.topic, err)
	}
	p.logger.DebugContext(ctx, "event published",
		"id", ev.ID, "topic", p.topic, "partition", part, "offset", off, "parcels", len(ev.Parcels))
	return nil
}

func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("events: close producer: %w", err)
	}
	return nil
}
