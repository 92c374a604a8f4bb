package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cloudmesh/ledger/internal/domain"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an error in the API response.
type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the standard envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps err onto the API error envelope. Ledger error messages
// reach the client verbatim.
func WriteError(w http.ResponseWriter, err error) {
	status, apiErr := mapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(Envelope{Error: &apiErr}); encErr != nil {
		slog.Error("failed to encode error response", "error", encErr)
	}
}

func mapError(err error) (int, APIError) {
	switch {
	case errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidCid),
		errors.Is(err, domain.ErrInvalidCost):
		return http.StatusBadRequest, APIError{Code: "validation_error", Message: err.Error()}

	case errors.Is(err, domain.ErrJobAlreadyCompleted),
		errors.Is(err, domain.ErrJobCancelled),
		errors.Is(err, domain.ErrJobAlreadyCancelled),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrAddressAlreadyInUse):
		return http.StatusConflict, APIError{Code: "state_conflict", Message: err.Error()}

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, APIError{Code: "unauthorized", Message: err.Error()}

	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, APIError{Code: "unauthenticated", Message: err.Error()}

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "not_found", Message: err.Error()}

	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, APIError{Code: "invalid_input", Message: err.Error()}
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, APIError{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: []FieldError{
				{Field: validationErr.Field, Message: validationErr.Message},
			},
		}
	}

	slog.Error("unhandled error", "error", err)
	return http.StatusInternalServerError, APIError{
		Code:    "internal_error",
		Message: "An unexpected error occurred",
	}
}
