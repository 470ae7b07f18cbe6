package services

import (
	"github.com/nats-io/nats.go"
	"github.com/travelbooks/backend/internal/models"
)

// EventPublisher delivers ledger events to downstream consumers.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// LedgerEvent is published once per appended entry.
type LedgerEvent struct {
	Type  string             `json:"type"`
	Entry models.LedgerEntry `json:"entry"`
}

// NatsPublisher publishes ledger events on a NATS connection.
type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

func (p *NatsPublisher) Publish(subject string, data []byte) error {
	return p.nc.Publish(subject, data)
}
