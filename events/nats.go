package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/yeremiapane/restaurant-pos/models"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("restaurant-pos"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Subject is "<base>.<kind>", e.g. pos.status.tables.
func (p *NATSPublisher) PublishStatusChange(_ context.Context, change models.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s", p.subject, change.Kind)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
