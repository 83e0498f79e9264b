// Package broadcaster drains the results outbox to Kafka. It is the
// durable delivery path: records move New -> Sent -> Acked, and anything
// not acked is retried on the next tick or in the final drain.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"qrsim/infra/results"
)

type Broadcaster struct {
	store    *results.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      zerolog.Logger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(
	store *results.Store,
	brokers []string,
	topic string,
	logger zerolog.Logger,
) (*Broadcaster, error) {

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
		log:      logger.With().Str("component", "broadcaster").Logger(),
	}, nil
}

// ------------------------------------------------
// DRAIN LOOP
// ------------------------------------------------

// Run ticks until ctx is cancelled, publishing pending outbox records.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info().Str("topic", b.topic).Msg("broadcaster started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			b.drainOnce()
		}
	}
}

// Drain publishes everything still pending. Called once after the
// simulation finishes so a short run does not leave records behind.
func (b *Broadcaster) Drain() {
	b.drainOnce()
}

func (b *Broadcaster) drainOnce() {
	err := b.store.ScanPending(func(rec results.Record) error {

		if err := b.store.MarkSent(rec.Step); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(stepKey(rec.Step)),
			Value: sarama.ByteEncoder(rec.Payload),
		}

		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// Stays in Sent; picked up again next tick.
			b.log.Warn().Err(err).Uint64("step", rec.Step).Msg("publish failed")
			return nil
		}

		return b.store.MarkAcked(rec.Step)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("outbox scan failed")
	}
}

func stepKey(step uint64) string {
	return strconv.FormatUint(step, 10)
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
