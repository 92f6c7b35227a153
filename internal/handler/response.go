package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/audit-validator/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps a service error onto its API error. Audit file
// rejections carry the underlying reason as details.
func RespondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		RespondAppError(w, ErrResourceNotFound, nil)
	case errors.Is(err, domain.ErrForbidden):
		RespondAppError(w, ErrForbidden, nil)
	case errors.Is(err, domain.ErrInvalidAuditFile),
		errors.Is(err, domain.ErrUnknownCode),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidDocumentNumber):
		RespondAppError(w, ErrInvalidAuditFile, err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		RespondAppError(w, ErrInvalidRequest, nil)
	default:
		slog.Error("unhandled domain error", "error", err)
		RespondAppError(w, ErrInternalError, nil)
	}
}
