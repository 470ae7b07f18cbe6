package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/models"
)

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, t *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	Update(ctx context.Context, t *models.Ticket) error
	NumberExists(ctx context.Context, number, excludeID string) (bool, error)
}

// PaymentMethodLookup resolves the classification of a payment method.
type PaymentMethodLookup interface {
	MethodType(ctx context.Context, methodID string) (string, error)
}

const ticketColumns = `id, user_id, ticket_number, passenger_name, airline_code, provider_id, agent_id,
	operation_type, pnr, provider_cost, consumer_cost, profit, payment_to_provider, payment_type,
	provider_fee, consumer_fee, issue_date, created_at, updated_at`

type PostgresTicketRepository struct {
	db *sql.DB
}

func NewPostgresTicketRepository(db *sql.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{db: db}
}

func (r *PostgresTicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.UserID, t.TicketNumber, t.PassengerName, t.AirlineCode, t.ProviderID, t.AgentID,
		t.OperationType, t.PNR, t.ProviderCost, t.ConsumerCost, t.Profit, t.PaymentToProvider, t.PaymentType,
		nullDecimal(t.ProviderFee), nullDecimal(t.ConsumerFee), t.IssueDate, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	var agentID sql.NullString
	var providerFee, consumerFee decimal.NullDecimal

	err := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id).Scan(
		&t.ID, &t.UserID, &t.TicketNumber, &t.PassengerName, &t.AirlineCode, &t.ProviderID, &agentID,
		&t.OperationType, &t.PNR, &t.ProviderCost, &t.ConsumerCost, &t.Profit, &t.PaymentToProvider, &t.PaymentType,
		&providerFee, &consumerFee, &t.IssueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}

	if agentID.Valid {
		t.AgentID = &agentID.String
	}
	if providerFee.Valid {
		t.ProviderFee = &providerFee.Decimal
	}
	if consumerFee.Valid {
		t.ConsumerFee = &consumerFee.Decimal
	}
	return &t, nil
}

func (r *PostgresTicketRepository) Update(ctx context.Context, t *models.Ticket) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET ticket_number = $1, passenger_name = $2, airline_code = $3, provider_id = $4, agent_id = $5,
		    operation_type = $6, pnr = $7, provider_cost = $8, consumer_cost = $9, profit = $10,
		    payment_to_provider = $11, payment_type = $12, provider_fee = $13, consumer_fee = $14,
		    issue_date = $15, updated_at = $16
		WHERE id = $17`,
		t.TicketNumber, t.PassengerName, t.AirlineCode, t.ProviderID, t.AgentID,
		t.OperationType, t.PNR, t.ProviderCost, t.ConsumerCost, t.Profit,
		t.PaymentToProvider, t.PaymentType, nullDecimal(t.ProviderFee), nullDecimal(t.ConsumerFee),
		t.IssueDate, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *PostgresTicketRepository) NumberExists(ctx context.Context, number, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickets WHERE ticket_number = $1 AND id <> $2)`,
		number, excludeID).Scan(&exists)
	return exists, err
}

// MethodType returns the payment method's type, or "" when it is unknown.
func (r *PostgresTicketRepository) MethodType(ctx context.Context, methodID string) (string, error) {
	var methodType string
	err := r.db.QueryRowContext(ctx,
		`SELECT type FROM payment_methods WHERE id = $1`, methodID).Scan(&methodType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return methodType, err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// MemoryTicketRepository keeps tickets, agents and payment methods in process.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]models.Ticket
	methods map[string]models.PaymentMethod
	agents  map[string]string
}

func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]models.Ticket),
		methods: make(map[string]models.PaymentMethod),
		agents:  make(map[string]string),
	}
}

// AddAgent registers an agent's name for summaries.
func (r *MemoryTicketRepository) AddAgent(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[id] = name
}

// DisplayName returns the agent name or the ticket's passenger name.
func (r *MemoryTicketRepository) DisplayName(entity models.EntityRef) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch entity.Kind {
	case models.EntityAgent:
		return r.agents[entity.ID]
	case models.EntityTicket:
		return r.tickets[entity.ID].PassengerName
	}
	return ""
}

// AddPaymentMethod registers a payment method for MethodType lookups.
func (r *MemoryTicketRepository) AddPaymentMethod(m models.PaymentMethod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.ID] = m
}

func (r *MemoryTicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = *t
	return nil
}

func (r *MemoryTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return &t, nil
}

func (r *MemoryTicketRepository) Update(ctx context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return ErrTicketNotFound
	}
	r.tickets[t.ID] = *t
	return nil
}

func (r *MemoryTicketRepository) NumberExists(ctx context.Context, number, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, t := range r.tickets {
		if id != excludeID && strings.TrimSpace(t.TicketNumber) == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryTicketRepository) MethodType(ctx context.Context, methodID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.methods[methodID].Type, nil
}
