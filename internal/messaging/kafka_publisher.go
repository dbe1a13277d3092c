// Package messaging publishes order events to Kafka.
package messaging

import (
	"context"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	clientID     = "orderledger"
	batchTimeout = 10 * time.Millisecond
)

// Producer is satisfied by the traced writer returned by NewWriter.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer Producer
	logger   *zap.Logger
}

func NewKafkaPublisher(producer Producer, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
	}
}

// Publish writes one message keyed by key, so all events of an order land on one partition
// in publish order.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("producer.WriteMessage[%s]: %w", topic, err)
	}

	p.logger.Debug("event published", zap.String("topic", topic), zap.String("key", key))

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NewWriter builds a traced writer for brokers. Messages carry their own topic, trace context
// is injected into message headers with propagator.
func NewWriter(brokers []string, tp trace.TracerProvider, propagator propagation.TextMapPropagator) (Producer, error) {
	baseWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagator),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otelkafka.NewWriter: %w", err)
	}

	return writer, nil
}
