package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	mW "github.com/travelbooks/backend/internal/middleware"
	"github.com/travelbooks/backend/internal/models"
	"github.com/travelbooks/backend/internal/services"
)

const dateLayout = "2006-01-02"

type LedgerHandler struct {
	service   *services.LedgerService
	validator *services.ValidationHelper
}

func NewLedgerHandler(service *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type paymentRequest struct {
	EntityID        string            `json:"entityId" validate:"required"`
	EntityType      models.EntityKind `json:"entityType" validate:"required,entitykind"`
	Amount          decimal.Decimal   `json:"amount" validate:"gt=0"`
	PaymentMethod   string            `json:"paymentMethod" validate:"required"`
	ReferenceNumber string            `json:"referenceNumber" validate:"required"`
	Description     string            `json:"description"`
	PaymentDate     *time.Time        `json:"paymentDate,omitempty"`
	RelatedTickets  []string          `json:"relatedTickets,omitempty"`
}

type manualEntryRequest struct {
	EntityID        string                 `json:"entityId" validate:"required"`
	EntityType      models.EntityKind      `json:"entityType" validate:"required,entitykind"`
	TicketID        *string                `json:"ticketId,omitempty"`
	Amount          decimal.Decimal        `json:"amount" validate:"gte=0"`
	TransactionType models.TransactionType `json:"transactionType" validate:"required,txtype"`
	ReferenceNumber string                 `json:"referenceNumber" validate:"required"`
	Description     string                 `json:"description" validate:"required"`
	Date            *time.Time             `json:"date,omitempty"`
}

// RecordPayment records money received from an agent or ticket holder
// @Summary Record payment
// @Description Store a payment and its credit ledger entry
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body paymentRequest true "Payment"
// @Success 201 {object} services.PaymentResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /ledger/payment [post]
func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := mW.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payment := services.PaymentRequest{
		Entity:          models.EntityRef{Kind: req.EntityType, ID: req.EntityID},
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		RelatedTickets:  req.RelatedTickets,
		Actor:           userID,
	}
	if req.PaymentDate != nil {
		payment.PaymentDate = *req.PaymentDate
	}

	result, err := h.service.RecordPayment(r.Context(), payment)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"payment":     result.Payment,
		"ledgerEntry": result.LedgerEntry,
	})
}

// CreateManualEntry posts an adjustment entry
// @Summary Manual ledger entry
// @Description Post a debit, credit or no-effect entry; date may be backdated
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body manualEntryRequest true "Ledger entry"
// @Success 201 {object} models.LedgerEntry
// @Failure 400 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /ledger/manual-entry [post]
func (h *LedgerHandler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var req manualEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	entry, err := h.service.Record(r.Context(), services.RecordRequest{
		Entity:          models.EntityRef{Kind: req.EntityType, ID: req.EntityID},
		TicketID:        req.TicketID,
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		TransactionType: req.TransactionType,
		Date:            req.Date,
	})
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    entry,
	})
}

// ListEntries lists all ledger entries
// @Summary List ledger
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param search query string false "Search term"
// @Success 200 {array} models.LedgerEntry
// @Router /ledger [get]
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, pagination, err := h.service.Ledger(r.Context(), services.ListQuery{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       entries,
		"pagination": pagination,
	})
}

// EntityLedger lists one entity's entries
// @Summary Entity ledger
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param entityId path string true "Agent or ticket id"
// @Param startDate query string false "YYYY-MM-DD, inclusive"
// @Param endDate query string false "YYYY-MM-DD, inclusive"
// @Success 200 {array} models.LedgerEntry
// @Failure 400 {object} services.ErrorResponse
// @Router /ledger/entity/{entityId} [get]
func (h *LedgerHandler) EntityLedger(w http.ResponseWriter, r *http.Request) {
	q := services.EntityQuery{
		EntityID: chi.URLParam(r, "entityId"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}

	if v := r.URL.Query().Get("startDate"); v != "" {
		start, err := time.Parse(dateLayout, v)
		if err != nil {
			services.SendErrorResponse(w, "Invalid startDate, expected YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		q.StartDate = &start
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		day, err := time.Parse(dateLayout, v)
		if err != nil {
			services.SendErrorResponse(w, "Invalid endDate, expected YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		end := day.Add(24*time.Hour - time.Nanosecond)
		q.EndDate = &end
	}

	entries, pagination, err := h.service.EntityLedger(r.Context(), q)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       entries,
		"pagination": pagination,
	})
}

// Summary returns the latest balance per entity
// @Summary Balance summary
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.BalanceSummary
// @Router /ledger/summary [get]
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summaries(r.Context())
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    summaries,
	})
}

// Balance returns an entity's current balance
// @Summary Current balance
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param entityId path string true "Agent or ticket id"
// @Success 200 {object} object{entityId=string,balance=string}
// @Router /ledger/balance/{entityId} [get]
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityId")

	balance, err := h.service.CurrentBalance(r.Context(), entityID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"entityId": entityID,
		"balance":  balance,
	})
}

// VerifyChain checks an entity's running balance chain
// @Summary Verify balance chain
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param entityId path string true "Agent or ticket id"
// @Success 200 {object} services.ChainReport
// @Router /ledger/verify/{entityId} [get]
func (h *LedgerHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.VerifyChain(r.Context(), chi.URLParam(r, "entityId"))
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}
