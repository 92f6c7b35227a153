package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/auth"
	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/logging"
	"github.com/josh-kwaku/audit-validator/internal/report"
)

type validationService interface {
	Validate(ctx context.Context, af *domain.AuditFile) (*domain.ValidationRun, error)
	GetForTaxpayer(ctx context.Context, id uuid.UUID, taxRegistrationNumber string) (*domain.ValidationRun, error)
}

type ValidationHandler struct {
	validations  validationService
	maxBodyBytes int64
}

func NewValidationHandler(validations validationService, maxBodyBytes int64) *ValidationHandler {
	return &ValidationHandler{validations: validations, maxBodyBytes: maxBodyBytes}
}

func validateSubmission(af *domain.AuditFile) []FieldError {
	var errs []FieldError
	if af.Header.TaxRegistrationNumber == "" {
		errs = append(errs, FieldError{Field: "header.tax_registration_number", Message: "required"})
	}
	if af.Header.FiscalYear <= 0 {
		errs = append(errs, FieldError{Field: "header.fiscal_year", Message: "must be a positive year"})
	}
	if af.Header.StartDate.IsZero() {
		errs = append(errs, FieldError{Field: "header.start_date", Message: "required"})
	}
	if af.Header.EndDate.IsZero() {
		errs = append(errs, FieldError{Field: "header.end_date", Message: "required"})
	}
	if af.Header.CurrencyCode == "" {
		errs = append(errs, FieldError{Field: "header.currency_code", Message: "required"})
	}
	return errs
}

type entryDTO struct {
	Severity string `json:"severity"`
	Table    string `json:"table,omitempty"`
	Document string `json:"document,omitempty"`
	Line     *int   `json:"line,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

type totalsDTO struct {
	NumberOfEntries     int              `json:"number_of_entries"`
	TotalDebit          decimal.Decimal  `json:"total_debit"`
	TotalCredit         decimal.Decimal  `json:"total_credit"`
	TotalLines          *int             `json:"number_of_movement_lines,omitempty"`
	TotalQuantityIssued *decimal.Decimal `json:"total_quantity_issued,omitempty"`
}

type documentDTO struct {
	Number            string                  `json:"number"`
	Valid             bool                    `json:"valid"`
	NetTotal          decimal.Decimal         `json:"net_total"`
	TaxPayable        decimal.Decimal         `json:"tax_payable"`
	GrossTotal        decimal.Decimal         `json:"gross_total"`
	GrossFromCurrency *decimal.Decimal        `json:"gross_from_currency,omitempty"`
	Lines             map[int]decimal.Decimal `json:"lines"`
}

type tableDTO struct {
	Table      string        `json:"table"`
	Valid      bool          `json:"valid"`
	Declared   totalsDTO     `json:"declared"`
	Recomputed totalsDTO     `json:"recomputed"`
	Documents  []documentDTO `json:"documents"`
}

type runDTO struct {
	ID                    uuid.UUID  `json:"id"`
	TaxRegistrationNumber string     `json:"tax_registration_number"`
	FiscalYear            int        `json:"fiscal_year"`
	Valid                 bool       `json:"valid"`
	ErrorCount            int        `json:"error_count"`
	WarningCount          int        `json:"warning_count"`
	Entries               []entryDTO `json:"entries"`
	Tables                []tableDTO `json:"tables"`
	CreatedAt             time.Time  `json:"created_at"`
}

func toEntryDTO(e report.Entry) entryDTO {
	return entryDTO{
		Severity: string(e.Severity),
		Table:    e.Table,
		Document: e.Document,
		Line:     e.Line,
		Field:    e.Field,
		Message:  e.Message,
	}
}

func toTotalsDTO(t domain.TableTotals, movement bool) totalsDTO {
	dto := totalsDTO{
		NumberOfEntries: t.NumberOfEntries,
		TotalDebit:      t.TotalDebit,
		TotalCredit:     t.TotalCredit,
	}
	if movement {
		lines, qty := t.TotalLines, t.TotalQuantityIssued
		dto.TotalLines = &lines
		dto.TotalQuantityIssued = &qty
	}
	return dto
}

func toTableDTO(t domain.TableResult) tableDTO {
	movement := t.Table == domain.TableMovementOfGoods
	dto := tableDTO{
		Table:      t.Table,
		Valid:      t.Valid,
		Declared:   toTotalsDTO(t.Declared, movement),
		Recomputed: toTotalsDTO(t.Recomputed, movement),
		Documents:  make([]documentDTO, 0, len(t.Documents)),
	}
	for _, d := range t.Documents {
		dto.Documents = append(dto.Documents, documentDTO{
			Number:            d.Number,
			Valid:             d.Valid,
			NetTotal:          d.Recomputed.NetTotal,
			TaxPayable:        d.Recomputed.TaxPayable,
			GrossTotal:        d.Recomputed.GrossTotal,
			GrossFromCurrency: d.Recomputed.GrossFromCurrency,
			Lines:             d.Recomputed.Lines,
		})
	}
	return dto
}

func toRunDTO(run *domain.ValidationRun) runDTO {
	dto := runDTO{
		ID:                    run.ID,
		TaxRegistrationNumber: run.TaxRegistrationNumber,
		FiscalYear:            run.FiscalYear,
		Valid:                 run.Valid,
		ErrorCount:            run.ErrorCount(),
		WarningCount:          run.WarningCount(),
		Entries:               make([]entryDTO, 0, len(run.Entries)),
		Tables:                make([]tableDTO, 0, len(run.Tables)),
		CreatedAt:             run.CreatedAt,
	}
	for _, e := range run.Entries {
		dto.Entries = append(dto.Entries, toEntryDTO(e))
	}
	for _, t := range run.Tables {
		dto.Tables = append(dto.Tables, toTableDTO(t))
	}
	return dto
}

func (h *ValidationHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var af domain.AuditFile
	if err := json.NewDecoder(r.Body).Decode(&af); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondAppError(w, ErrPayloadTooLarge, nil)
			return
		}
		log.Info("audit file rejected", "error", err)
		RespondAppError(w, ErrInvalidRequest, err.Error())
		return
	}

	if fields := validateSubmission(&af); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if af.Header.TaxRegistrationNumber != claims.TaxRegistrationNumber {
		log.Warn("audit file submitted for another taxpayer",
			"tax_registration_number", af.Header.TaxRegistrationNumber,
		)
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	run, err := h.validations.Validate(r.Context(), &af)
	if err != nil {
		log.Warn("validation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/validations/%s", run.ID))
	RespondSuccess(w, http.StatusCreated, toRunDTO(run))
}

func (h *ValidationHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	run, err := h.validations.GetForTaxpayer(r.Context(), runID, claims.TaxRegistrationNumber)
	if err != nil {
		logging.FromContext(r.Context()).Warn("validation run lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toRunDTO(run))
}
