package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Operation types recorded on tickets.
const (
	OperationFlight  = "Flight"
	OperationHotel   = "Hotel"
	OperationUmrah   = "Umrah"
	OperationRefund  = "Refund"
	OperationReIssue = "Re-Issue"
)

// Payment types recorded on tickets.
const (
	PaymentFull    = "Full"
	PaymentPartial = "Partial"
)

// DefaultAgentCardType is the payment method classification that turns
// ticket postings into no-effect entries.
const DefaultAgentCardType = "Agent Card"

// Ticket is a booking operation sold to a client, optionally through an agent.
type Ticket struct {
	ID                string           `json:"id" db:"id"`
	UserID            string           `json:"user" db:"user_id"`
	TicketNumber      string           `json:"ticketNumber" db:"ticket_number"`
	PassengerName     string           `json:"passengerName" db:"passenger_name"`
	AirlineCode       string           `json:"airlineCode" db:"airline_code"`
	ProviderID        string           `json:"provider" db:"provider_id"`
	AgentID           *string          `json:"agent,omitempty" db:"agent_id"`
	OperationType     string           `json:"operationType" db:"operation_type"`
	PNR               string           `json:"pnr" db:"pnr"`
	ProviderCost      decimal.Decimal  `json:"providerCost" db:"provider_cost"`
	ConsumerCost      decimal.Decimal  `json:"consumerCost" db:"consumer_cost"`
	Profit            decimal.Decimal  `json:"profit" db:"profit"`
	PaymentToProvider string           `json:"paymentToProvider" db:"payment_to_provider"`
	PaymentType       string           `json:"paymentType" db:"payment_type"`
	ProviderFee       *decimal.Decimal `json:"providerFee,omitempty" db:"provider_fee"`
	ConsumerFee       *decimal.Decimal `json:"consumerFee,omitempty" db:"consumer_fee"`
	IssueDate         time.Time        `json:"issueDate" db:"issue_date"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// HasAgent reports whether the ticket was sold through an agent.
func (t *Ticket) HasAgent() bool {
	return t.AgentID != nil && *t.AgentID != ""
}

// LedgerEntity is the account charged for this ticket: the agent when present,
// otherwise the ticket itself.
func (t *Ticket) LedgerEntity() EntityRef {
	if t.HasAgent() {
		return AgentEntity(*t.AgentID)
	}
	return TicketEntity(t.ID)
}

// IsFeeOperation reports whether the operation carries a consumer fee posting.
func (t *Ticket) IsFeeOperation() bool {
	return t.OperationType == OperationRefund || t.OperationType == OperationReIssue
}

// ConsumerFeeOrZero returns the fee, or zero when none is set.
func (t *Ticket) ConsumerFeeOrZero() decimal.Decimal {
	if t.ConsumerFee == nil {
		return decimal.Zero
	}
	return *t.ConsumerFee
}

// IsPlaceholderNumber reports whether a ticket number is one of the all-zero
// placeholders that may repeat.
func IsPlaceholderNumber(number string) bool {
	n := strings.TrimSpace(number)
	return n == "0000000000000" || n == "0000000000000000"
}

// PaymentMethod is a configured payment method; Type carries its classification.
type PaymentMethod struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user" db:"user_id"`
	Name      string `json:"name" db:"name"`
	Type      string `json:"type" db:"type"`
	MethodFor string `json:"methodFor" db:"method_for"`
}
