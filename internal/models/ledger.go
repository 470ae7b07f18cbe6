package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind tags which collection an entity id resolves against.
type EntityKind string

const (
	EntityAgent  EntityKind = "Agent"
	EntityTicket EntityKind = "Ticket"
)

// ParseEntityKind accepts only the known entity kinds.
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityAgent, EntityTicket:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// EntityRef identifies an account with its own running balance: an agent, or a
// ticket acting as its own client account.
type EntityRef struct {
	Kind EntityKind `json:"entityType"`
	ID   string     `json:"entityId"`
}

func AgentEntity(id string) EntityRef  { return EntityRef{Kind: EntityAgent, ID: id} }
func TicketEntity(id string) EntityRef { return EntityRef{Kind: EntityTicket, ID: id} }

func (e EntityRef) String() string {
	return string(e.Kind) + ":" + e.ID
}

// TransactionType decides how an entry moves the running balance.
type TransactionType string

const (
	Debit    TransactionType = "debit"
	Credit   TransactionType = "credit"
	NoEffect TransactionType = "no-effect"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case Debit, Credit, NoEffect:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Signed returns the balance delta of amount under this type.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case Debit:
		return amount
	case Credit:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// Apply returns the balance after applying amount to balance.
func (t TransactionType) Apply(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(t.Signed(amount))
}

// LedgerEntry is immutable once written. Balance is the entity's running
// balance immediately after this entry.
type LedgerEntry struct {
	ID              string          `json:"id" db:"id"`
	EntityID        string          `json:"entityId" db:"entity_id"`
	EntityType      EntityKind      `json:"entityType" db:"entity_type"`
	TicketID        *string         `json:"ticketId,omitempty" db:"ticket_id"`
	TransactionType TransactionType `json:"transactionType" db:"transaction_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Balance         decimal.Decimal `json:"balance" db:"balance"`
	Description     string          `json:"description" db:"description"`
	ReferenceNumber string          `json:"referenceNumber" db:"reference_number"`
	Date            time.Time       `json:"date" db:"date"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

func (e LedgerEntry) Entity() EntityRef {
	return EntityRef{Kind: e.EntityType, ID: e.EntityID}
}

// EntryDraft is everything a writer knows before the store assigns id,
// balance and creation time.
type EntryDraft struct {
	Entity          EntityRef
	TicketID        *string
	TransactionType TransactionType
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
	Date            *time.Time
}

// BalanceSummary is the latest balance of one entity joined with its display name.
type BalanceSummary struct {
	EntityID   string          `json:"entityId" db:"entity_id"`
	EntityType EntityKind      `json:"entityType" db:"entity_type"`
	Name       string          `json:"name" db:"name"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
}

// Pagination mirrors the paging block returned by list endpoints.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	PageSize    int `json:"pageSize"`
}

func NewPagination(page, size, total int) Pagination {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Pagination{CurrentPage: page, TotalPages: pages, TotalItems: total, PageSize: size}
}
