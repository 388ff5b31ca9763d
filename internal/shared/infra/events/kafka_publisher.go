package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/segmentio/kafka-go"

	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
	"github.com/davicafu/crudlab/internal/shared/infra/utils"
)

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var key []byte
	if keyer, ok := event.(sharedBus.Keyer); ok {
		key = []byte(keyer.PartitionKey())
	}

	msg := kafka.Message{
		Key:   key,
		Value: data,
	}

	err = utils.Retry(ctx, publishAttempts, publishBackoff, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.log.Error("Error publishing to Kafka", zap.Error(err))
		return err
	}

	p.log.Debug("Event published successfully", zap.Any("event", event))
	return nil
}

// Static check
var _ sharedBus.EventBus = (*KafkaPublisher)(nil)
