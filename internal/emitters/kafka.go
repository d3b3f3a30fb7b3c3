package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bitcoin-node-sim/internal/logger"
	"bitcoin-node-sim/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaEmitter publishes ledger appends to a Kafka topic, keyed by
// transaction id.
type KafkaEmitter struct {
	writer  *kafka.Writer
	timeout time.Duration
	mu      sync.Mutex
}

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(brokerAddress, topic string) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokerAddress),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		timeout: 10 * time.Second,
	}
}

// Message builds the Kafka record for an event.
func Message(event models.TransactionEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Transaction.ID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "network", Value: []byte(event.Network)},
			{Key: "type", Value: []byte(event.Transaction.Type)},
		},
	}, nil
}

func (k *KafkaEmitter) EmitEvent(event models.TransactionEvent) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter is closed")
	}

	msg, err := Message(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logger.GetLogger().Info().
		Str("network", event.Network.String()).
		Str("txid", event.Transaction.ID).
		Msg("Successfully emitted event to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
