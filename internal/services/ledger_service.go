package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/audit"
	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/models"
)

// moneyScale matches the NUMERIC(18, 2) ledger columns.
const moneyScale = 2

// LedgerService is the write path of the ledger: balance resolution,
// transaction recording, difference reconciliation and payments.
type LedgerService struct {
	store   LedgerStore
	events  EventPublisher
	audit   *audit.AuditLogger
	config  *config.LedgerConfig
	locks   *entityLocks
	subject string
}

// RecordRequest describes one ledger posting.
type RecordRequest struct {
	Entity          models.EntityRef       `json:"entity"`
	TicketID        *string                `json:"ticketId,omitempty"`
	Amount          decimal.Decimal        `json:"amount"`
	ReferenceNumber string                 `json:"referenceNumber"`
	Description     string                 `json:"description"`
	TransactionType models.TransactionType `json:"transactionType"`
	Date            *time.Time             `json:"date,omitempty"`
}

// DifferenceRequest describes an edit of a ticket's billed amount.
type DifferenceRequest struct {
	OldValue          decimal.Decimal  `json:"oldValue"`
	NewValue          decimal.Decimal  `json:"newValue"`
	Entity            models.EntityRef `json:"entity"`
	TicketID          string           `json:"ticketId"`
	ReferenceNumber   string           `json:"referenceNumber"`
	DescriptionPrefix string           `json:"descriptionPrefix"`
	IsAgentCard       bool             `json:"isAgentCard"`
}

// PaymentRequest describes money received from an entity.
type PaymentRequest struct {
	Entity          models.EntityRef
	Amount          decimal.Decimal
	PaymentMethod   string
	ReferenceNumber string
	Description     string
	PaymentDate     time.Time
	RelatedTickets  []string
	Actor           string
}

type PaymentResult struct {
	Payment     *models.Payment     `json:"payment"`
	LedgerEntry *models.LedgerEntry `json:"ledgerEntry"`
}

func NewLedgerService(store LedgerStore, events EventPublisher, cfg *config.LedgerConfig) *LedgerService {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &LedgerService{
		store:   store,
		events:  events,
		audit:   audit.NewAuditLogger(),
		config:  cfg,
		locks:   newEntityLocks(),
		subject: cfg.EventsSubject,
	}
}

// CurrentBalance returns the balance of the entity's most recent entry, or
// zero when the entity has no history.
func (s *LedgerService) CurrentBalance(ctx context.Context, entityID string) (decimal.Decimal, error) {
	return s.store.LatestBalance(ctx, entityID)
}

// Record appends one entry whose balance is derived from the entity's
// current balance under the transaction type rule.
func (s *LedgerService) Record(ctx context.Context, req RecordRequest) (*models.LedgerEntry, error) {
	draft := models.EntryDraft{
		Entity:          req.Entity,
		TicketID:        req.TicketID,
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		Date:            req.Date,
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(req.Entity.ID)
	entry, err := s.store.Append(ctx, draft)
	unlock()

	if err != nil {
		s.audit.LogError(req.Entity.ID, req.ReferenceNumber, err)
		return nil, &StoreWriteError{Op: "append", Err: err}
	}

	s.afterAppend(entry)
	return entry, nil
}

// RecordWithType is Record with positional arguments.
func (s *LedgerService) RecordWithType(ctx context.Context, entity models.EntityRef, ticketID *string, amount decimal.Decimal, referenceNumber, description string, txType models.TransactionType) (*models.LedgerEntry, error) {
	return s.Record(ctx, RecordRequest{
		Entity:          entity,
		TicketID:        ticketID,
		Amount:          amount,
		ReferenceNumber: referenceNumber,
		Description:     description,
		TransactionType: txType,
	})
}

// RecordDebit posts a standard ticket charge.
func (s *LedgerService) RecordDebit(ctx context.Context, entity models.EntityRef, ticketID string, amount decimal.Decimal, referenceNumber string) (*models.LedgerEntry, error) {
	return s.RecordWithType(ctx, entity, &ticketID, amount, referenceNumber,
		fmt.Sprintf("Ticket charge - %s", referenceNumber), models.Debit)
}

// ReconcileDifference posts the correction for an edited amount. Returns
// (nil, nil) when the value did not change.
func (s *LedgerService) ReconcileDifference(ctx context.Context, req DifferenceRequest) (*models.LedgerEntry, error) {
	difference := req.NewValue.Sub(req.OldValue)
	if difference.IsZero() {
		return nil, nil
	}

	txType := models.Credit
	switch {
	case req.IsAgentCard:
		txType = models.NoEffect
	case difference.IsPositive():
		txType = models.Debit
	}

	ticketID := req.TicketID
	return s.RecordWithType(ctx, req.Entity, &ticketID, difference.Abs(), req.ReferenceNumber,
		fmt.Sprintf("%s updated by %s (old->new) on ticket update", req.DescriptionPrefix, difference.String()),
		txType)
}

// RecordPayment stores the payment and its credit entry in one write.
func (s *LedgerService) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, invalid("paymentMethod", "is required")
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	draft := models.EntryDraft{
		Entity:          req.Entity,
		TransactionType: models.Credit,
		Amount:          req.Amount,
		Description:     fmt.Sprintf("Payment received - %s", req.ReferenceNumber),
		ReferenceNumber: req.ReferenceNumber,
		Date:            &paymentDate,
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		EntityID:        req.Entity.ID,
		EntityType:      req.Entity.Kind,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		PaymentDate:     paymentDate,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		RelatedTickets:  models.TicketIDs(req.RelatedTickets),
		User:            req.Actor,
	}

	unlock := s.locks.lock(req.Entity.ID)
	entry, err := s.store.AppendPayment(ctx, payment, draft)
	unlock()

	if err != nil {
		s.audit.LogError(req.Entity.ID, req.ReferenceNumber, err)
		return nil, &StoreWriteError{Op: "append payment", Err: err}
	}

	s.audit.LogPayment(payment.ID, payment.EntityID, payment.ReferenceNumber, payment.Amount.String(), req.Actor)
	s.afterAppend(entry)
	return &PaymentResult{Payment: payment, LedgerEntry: entry}, nil
}

// EntityLedger returns one page of an entity's entries, newest first.
func (s *LedgerService) EntityLedger(ctx context.Context, q EntityQuery) ([]models.LedgerEntry, models.Pagination, error) {
	if strings.TrimSpace(q.EntityID) == "" {
		return nil, models.Pagination{}, invalid("entityId", "is required")
	}
	q.Page, q.Limit = s.normalizePage(q.Page, q.Limit)

	entries, total, err := s.store.ListByEntity(ctx, q)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return entries, models.NewPagination(q.Page, q.Limit, total), nil
}

// Ledger returns one page of all entries, newest first.
func (s *LedgerService) Ledger(ctx context.Context, q ListQuery) ([]models.LedgerEntry, models.Pagination, error) {
	q.Page, q.Limit = s.normalizePage(q.Page, q.Limit)

	entries, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return entries, models.NewPagination(q.Page, q.Limit, total), nil
}

// Summaries returns the latest balance of every entity with history.
func (s *LedgerService) Summaries(ctx context.Context) ([]models.BalanceSummary, error) {
	return s.store.Summaries(ctx)
}

func (s *LedgerService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	return page, limit
}

func (s *LedgerService) afterAppend(entry *models.LedgerEntry) {
	s.audit.LogPosting(entry.ID, entry.EntityID, entry.ReferenceNumber,
		string(entry.TransactionType), entry.Amount.String(), entry.Balance.String())

	if s.events == nil {
		return
	}

	data, err := json.Marshal(LedgerEvent{Type: s.subject, Entry: *entry})
	if err != nil {
		log.Printf("[LEDGER] Failed to encode event for entry %s: %v", entry.ID, err)
		return
	}
	if err := s.events.Publish(s.subject, data); err != nil {
		log.Printf("[LEDGER] Failed to publish event for entry %s: %v", entry.ID, err)
	}
}

func validateDraft(d models.EntryDraft) error {
	if strings.TrimSpace(d.Entity.ID) == "" {
		return invalid("entityId", "is required")
	}
	if _, err := models.ParseEntityKind(string(d.Entity.Kind)); err != nil {
		return invalid("entityType", "%v", err)
	}
	if _, err := models.ParseTransactionType(string(d.TransactionType)); err != nil {
		return invalid("transactionType", "%v", err)
	}
	if d.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	if !d.Amount.Equal(d.Amount.Round(moneyScale)) {
		return invalid("amount", "must have at most %d decimal places", moneyScale)
	}
	return nil
}

// entityLocks serializes writers per entity inside this process.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	sync.Mutex
	refs int
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*entityLock)}
}

func (l *entityLocks) lock(id string) func() {
	l.mu.Lock()
	el, ok := l.locks[id]
	if !ok {
		el = &entityLock{}
		l.locks[id] = el
	}
	el.refs++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
