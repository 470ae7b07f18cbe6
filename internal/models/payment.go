package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Payment records money received from an entity. It is always written together
// with exactly one credit LedgerEntry.
type Payment struct {
	ID              string          `json:"id" db:"id"`
	EntityID        string          `json:"entityId" db:"entity_id"`
	EntityType      EntityKind      `json:"entityType" db:"entity_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	PaymentDate     time.Time       `json:"paymentDate" db:"payment_date"`
	ReferenceNumber string          `json:"referenceNumber" db:"reference_number"`
	Description     string          `json:"description" db:"description"`
	RelatedTickets  TicketIDs       `json:"relatedTickets" db:"related_tickets"`
	User            string          `json:"user" db:"user_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

// TicketIDs is stored as a JSONB array.
type TicketIDs []string

// Value implements driver.Valuer for TicketIDs
func (t TicketIDs) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for TicketIDs
func (t *TicketIDs) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, t)
}
