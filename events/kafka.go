package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/yeremiapane/restaurant-pos/models"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// PublishStatusChange keys messages by unit so one unit's changes stay
// ordered within a partition.
func (p *KafkaPublisher) PublishStatusChange(ctx context.Context, change models.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", change.Kind, change.UnitID)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}
