package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/travelbooks/backend/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validation helper that understands decimal
// amounts and the ledger's entity kinds and transaction types.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterValidation("entitykind", func(fl validator.FieldLevel) bool {
		_, err := models.ParseEntityKind(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTransactionType(fl.Field().String())
		return err == nil
	})

	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}

	var fieldErrs validator.ValidationErrors
	var ve *ValidationError
	switch {
	case errors.As(validationErr, &fieldErrs):
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	case errors.As(validationErr, &ve):
		errorResp.Details = map[string]string{ve.Field: ve.Message}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendServiceError maps a service error onto the HTTP status it stands for.
func SendServiceError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrValidation), errors.As(err, &fieldErrs):
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
	case errors.Is(err, ErrTicketNotFound):
		SendErrorResponse(w, "Ticket not found", http.StatusNotFound, nil)
	case errors.Is(err, ErrDuplicateTicket):
		SendErrorResponse(w, "Ticket with this number already exists", http.StatusConflict, nil)
	default:
		SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
