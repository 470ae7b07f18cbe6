package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mW "github.com/travelbooks/backend/internal/middleware"
	"github.com/travelbooks/backend/internal/services"
)

type TicketHandler struct {
	service *services.TicketService
}

func NewTicketHandler(service *services.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// CreateTicket stores a ticket and posts its charges to the ledger
// @Summary Create ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.TicketInput true "Ticket"
// @Success 201 {object} models.Ticket
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /tickets [post]
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := mW.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.TicketInput
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, report, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    ticket,
		"ledger":  report,
	})
}

// UpdateTicket applies a partial update and reconciles amount changes
// @Summary Update ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket id"
// @Param request body services.TicketPatch true "Changed fields"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /tickets/{id} [patch]
func (h *TicketHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req services.TicketPatch
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, report, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    ticket,
		"ledger":  report,
	})
}

// GetTicket returns a ticket
// @Summary Get ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket id"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} services.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    ticket,
	})
}
