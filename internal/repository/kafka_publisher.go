package repository

import (
	"context"
	"fmt"

	"AlphaRefinery/internal/domain/models"
	pkgkafka "AlphaRefinery/pkg/kafka"
	applogger "AlphaRefinery/pkg/logger"
)

// KafkaPublisher emits refine summaries to a Kafka topic, keyed by market so
// consumers see one market's runs in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaPublisher) PublishSummary(ctx context.Context, s models.RefineSummary) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Market), s); err != nil {
		if p.l != nil {
			p.l.Error("kafka publish summary error",
				applogger.String("market", s.Market),
				applogger.String("topic", p.topic),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish summary: %w", err)
	}
	if p.l != nil {
		p.l.Info("kafka publish summary ok",
			applogger.String("market", s.Market),
			applogger.String("status", s.Status),
			applogger.Int("rows", s.Rows),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NopPublisher drops summaries; used when Kafka is disabled in config.
type NopPublisher struct{}

func (NopPublisher) PublishSummary(context.Context, models.RefineSummary) error { return nil }
func (NopPublisher) Close() error                                              { return nil }
