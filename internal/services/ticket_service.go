package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/models"
)

// TicketService stores tickets and drives their ledger postings.
type TicketService struct {
	repo          TicketRepository
	methods       PaymentMethodLookup
	poster        *TicketPoster
	validator     *ValidationHelper
	agentCardType string
	locks         *entityLocks
	now           func() time.Time
}

type TicketInput struct {
	TicketNumber      string           `json:"ticketNumber" validate:"required"`
	PassengerName     string           `json:"passengerName" validate:"required"`
	AirlineCode       string           `json:"airlineCode"`
	ProviderID        string           `json:"provider" validate:"required"`
	AgentID           *string          `json:"agent,omitempty"`
	OperationType     string           `json:"operationType" validate:"required,oneof=Flight Hotel Umrah Refund Re-Issue"`
	PNR               string           `json:"pnr"`
	ProviderCost      decimal.Decimal  `json:"providerCost" validate:"gte=0"`
	ConsumerCost      decimal.Decimal  `json:"consumerCost" validate:"gte=0"`
	PaymentToProvider string           `json:"paymentToProvider"`
	PaymentType       string           `json:"paymentType" validate:"required,oneof=Full Partial"`
	ProviderFee       *decimal.Decimal `json:"providerFee,omitempty" validate:"omitempty,gte=0"`
	ConsumerFee       *decimal.Decimal `json:"consumerFee,omitempty" validate:"omitempty,gte=0"`
	IssueDate         *time.Time       `json:"issueDate,omitempty"`
}

// TicketPatch carries the fields of a partial ticket update.
type TicketPatch struct {
	TicketNumber      *string          `json:"ticketNumber,omitempty" validate:"omitempty,min=1"`
	PassengerName     *string          `json:"passengerName,omitempty"`
	AirlineCode       *string          `json:"airlineCode,omitempty"`
	ProviderID        *string          `json:"provider,omitempty"`
	AgentID           *string          `json:"agent,omitempty"`
	OperationType     *string          `json:"operationType,omitempty" validate:"omitempty,oneof=Flight Hotel Umrah Refund Re-Issue"`
	PNR               *string          `json:"pnr,omitempty"`
	ProviderCost      *decimal.Decimal `json:"providerCost,omitempty" validate:"omitempty,gte=0"`
	ConsumerCost      *decimal.Decimal `json:"consumerCost,omitempty" validate:"omitempty,gte=0"`
	PaymentToProvider *string          `json:"paymentToProvider,omitempty"`
	PaymentType       *string          `json:"paymentType,omitempty" validate:"omitempty,oneof=Full Partial"`
	ProviderFee       *decimal.Decimal `json:"providerFee,omitempty" validate:"omitempty,gte=0"`
	ConsumerFee       *decimal.Decimal `json:"consumerFee,omitempty" validate:"omitempty,gte=0"`
	IssueDate         *time.Time       `json:"issueDate,omitempty"`
}

func NewTicketService(repo TicketRepository, methods PaymentMethodLookup, poster *TicketPoster, cfg *config.LedgerConfig) *TicketService {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &TicketService{
		repo:          repo,
		methods:       methods,
		poster:        poster,
		validator:     NewValidationHelper(),
		agentCardType: cfg.AgentCardType,
		locks:         newEntityLocks(),
		now:           time.Now,
	}
}

// Create stores a new ticket and posts its charges.
func (s *TicketService) Create(ctx context.Context, userID string, in TicketInput) (*models.Ticket, PostingReport, error) {
	if err := s.validator.ValidateStruct(&in); err != nil {
		return nil, PostingReport{}, err
	}
	if err := checkCents(map[string]*decimal.Decimal{
		"providerCost": &in.ProviderCost,
		"consumerCost": &in.ConsumerCost,
		"providerFee":  in.ProviderFee,
		"consumerFee":  in.ConsumerFee,
	}); err != nil {
		return nil, PostingReport{}, err
	}

	number := strings.TrimSpace(in.TicketNumber)
	if err := s.checkNumber(ctx, number, in.OperationType, ""); err != nil {
		return nil, PostingReport{}, err
	}

	now := s.now()
	ticket := &models.Ticket{
		ID:                uuid.NewString(),
		UserID:            userID,
		TicketNumber:      number,
		PassengerName:     strings.TrimSpace(in.PassengerName),
		AirlineCode:       in.AirlineCode,
		ProviderID:        in.ProviderID,
		AgentID:           blankToNil(in.AgentID),
		OperationType:     in.OperationType,
		PNR:               in.PNR,
		ProviderCost:      in.ProviderCost,
		ConsumerCost:      in.ConsumerCost,
		PaymentToProvider: in.PaymentToProvider,
		PaymentType:       in.PaymentType,
		ProviderFee:       in.ProviderFee,
		ConsumerFee:       in.ConsumerFee,
		IssueDate:         now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.IssueDate != nil {
		ticket.IssueDate = *in.IssueDate
	}
	ticket.Profit = ticket.ConsumerCost.Sub(ticket.ProviderCost)

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, PostingReport{}, err
	}
	log.Printf("[TICKET] Created ticket %s (%s) for %s", ticket.ID, ticket.TicketNumber, ticket.LedgerEntity())

	report := s.poster.PostCreation(ctx, ticket, s.isAgentCard(ctx, ticket.PaymentToProvider))
	return ticket, report, nil
}

// Update applies a partial update and reconciles the changed amounts.
// Updates of one ticket run one at a time so each reconciles against the
// state the previous one stored.
func (s *TicketService) Update(ctx context.Context, id string, patch TicketPatch) (*models.Ticket, PostingReport, error) {
	if err := s.validator.ValidateStruct(&patch); err != nil {
		return nil, PostingReport{}, err
	}
	if err := checkCents(map[string]*decimal.Decimal{
		"providerCost": patch.ProviderCost,
		"consumerCost": patch.ConsumerCost,
		"providerFee":  patch.ProviderFee,
		"consumerFee":  patch.ConsumerFee,
	}); err != nil {
		return nil, PostingReport{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, PostingReport{}, err
	}

	after := *before
	applyPatch(&after, patch)

	if after.TicketNumber != before.TicketNumber {
		if err := s.checkNumber(ctx, after.TicketNumber, after.OperationType, id); err != nil {
			return nil, PostingReport{}, err
		}
	}

	after.Profit = after.ConsumerCost.Sub(after.ProviderCost)
	after.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &after); err != nil {
		return nil, PostingReport{}, err
	}

	report := s.poster.PostUpdate(ctx, before, &after, s.isAgentCard(ctx, after.PaymentToProvider))
	return &after, report, nil
}

func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

// checkNumber rejects a duplicate ticket number. Placeholders and refunds may
// repeat a number.
func (s *TicketService) checkNumber(ctx context.Context, number, operation, excludeID string) error {
	if number == "" {
		return invalid("ticketNumber", "is required")
	}
	if models.IsPlaceholderNumber(number) || operation == models.OperationRefund {
		return nil
	}

	exists, err := s.repo.NumberExists(ctx, number, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateTicket
	}
	return nil
}

func (s *TicketService) isAgentCard(ctx context.Context, methodID string) bool {
	if methodID == "" || s.methods == nil {
		return false
	}
	methodType, err := s.methods.MethodType(ctx, methodID)
	if err != nil {
		log.Printf("[TICKET] Payment method lookup failed for %s: %v", methodID, err)
		return false
	}
	return methodType == s.agentCardType
}

func applyPatch(t *models.Ticket, p TicketPatch) {
	if p.TicketNumber != nil {
		t.TicketNumber = strings.TrimSpace(*p.TicketNumber)
	}
	if p.PassengerName != nil {
		t.PassengerName = strings.TrimSpace(*p.PassengerName)
	}
	if p.AirlineCode != nil {
		t.AirlineCode = *p.AirlineCode
	}
	if p.ProviderID != nil {
		t.ProviderID = *p.ProviderID
	}
	if p.AgentID != nil {
		t.AgentID = blankToNil(p.AgentID)
	}
	if p.OperationType != nil {
		t.OperationType = *p.OperationType
	}
	if p.PNR != nil {
		t.PNR = *p.PNR
	}
	if p.ProviderCost != nil {
		t.ProviderCost = *p.ProviderCost
	}
	if p.ConsumerCost != nil {
		t.ConsumerCost = *p.ConsumerCost
	}
	if p.PaymentToProvider != nil {
		t.PaymentToProvider = *p.PaymentToProvider
	}
	if p.PaymentType != nil {
		t.PaymentType = *p.PaymentType
	}
	if p.ProviderFee != nil {
		t.ProviderFee = p.ProviderFee
	}
	if p.ConsumerFee != nil {
		t.ConsumerFee = p.ConsumerFee
	}
	if p.IssueDate != nil {
		t.IssueDate = *p.IssueDate
	}
}

func checkCents(amounts map[string]*decimal.Decimal) error {
	for field, amount := range amounts {
		if amount != nil && !amount.Equal(amount.Round(moneyScale)) {
			return invalid(field, "must have at most %d decimal places", moneyScale)
		}
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
