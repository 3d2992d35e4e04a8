package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	obs "github.com/mohammed-shakir/dxf2gml/internal/core/observability"
)

// eventHandler turns claimed messages into ParcelsConverted calls of handle.
// Each distinct valid event ID reaches handle once unless handle fails.
type eventHandler struct {
	handle Handler
	seen   *dedupe
	zlog   *zerolog.Logger
	logger *slog.Logger
}

func (h *eventHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *eventHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks a message only after it was processed. A handler
// failure stops the claim so the message is read again after rebalance.
func (h *eventHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("claim context done: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}

// process decodes, validates and dedupes one message. Malformed and invalid
// messages are logged and skipped so they do not block the partition.
func (h *eventHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, ok := h.decode(msg)
	if !ok {
		return nil
	}
	if !h.seen.firstSeen(ev.ID) {
		obs.IncEventConsumed("duplicate")
		h.logger.Debug("duplicate event skipped", "id", ev.ID)
		return nil
	}
	if err := h.handle(ctx, ev); err != nil {
		h.seen.forget(ev.ID)
		obs.IncEventConsumed("handler")
		return fmt.Errorf("handle %s: %w", ev.ID, err)
	}
	obs.IncEventConsumed("ok")
	return nil
}

func (h *eventHandler) decode(msg *sarama.ConsumerMessage) (ParcelsConverted, bool) {
	var ev ParcelsConverted
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncEventConsumed("decode")
		h.zlog.Error().Err(err).
			Str("kind", "decode").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("kafka error")
		return ev, false
	}
	if err := ev.Validate(); err != nil {
		obs.IncEventConsumed("invalid")
		h.zlog.Warn().Err(err).
			Str("kind", "invalid").
			Str("id", ev.ID).
			Int64("offset", msg.Offset).
			Msg("event rejected")
		return ev, false
	}
	return ev, true
}
