package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/logging"
	"github.com/josh-kwaku/audit-validator/internal/masterdata"
	"github.com/josh-kwaku/audit-validator/internal/report"
	"github.com/josh-kwaku/audit-validator/internal/validate"
)

type engine interface {
	Run(ctx context.Context, af *domain.AuditFile, master *masterdata.Index, sink report.Sink) validate.Result
}

type runRepository interface {
	Create(ctx context.Context, run *domain.ValidationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRun, error)
}

// ValidationService runs the engine over one audit file at a time and keeps
// the outcome. Without a repository runs are returned but not stored.
type ValidationService struct {
	engine engine
	runs   runRepository
	now    func() time.Time
}

func NewValidationService(eng engine, runs runRepository) *ValidationService {
	return &ValidationService{engine: eng, runs: runs, now: time.Now}
}

func (s *ValidationService) Validate(ctx context.Context, af *domain.AuditFile) (*domain.ValidationRun, error) {
	if err := checkHeader(af); err != nil {
		return nil, fmt.Errorf("Validate: %w", err)
	}

	runID := uuid.New()
	ctx, log := logging.WithRun(ctx, runID)
	log.Info("validation started",
		"tax_registration_number", af.Header.TaxRegistrationNumber,
		"fiscal_year", af.Header.FiscalYear,
	)

	reg := report.NewRegister()
	master := masterdata.NewIndex(&af.MasterFiles, reg)
	res := s.engine.Run(ctx, af, master, reg)

	run := &domain.ValidationRun{
		ID:                    runID,
		TaxRegistrationNumber: af.Header.TaxRegistrationNumber,
		FiscalYear:            af.Header.FiscalYear,
		Valid:                 res.Valid && reg.Valid(),
		Entries:               reg.Entries(),
		Tables:                res.Tables,
		CreatedAt:             s.now().UTC().Truncate(time.Microsecond),
	}

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("Validate: %w", err)
		}
	}

	log.Info("validation completed",
		"valid", run.Valid,
		"errors", run.ErrorCount(),
		"warnings", run.WarningCount(),
		"tables", len(run.Tables),
	)
	return run, nil
}

// GetForTaxpayer returns a stored run. Runs that belong to another taxpayer
// are reported as not found.
func (s *ValidationService) GetForTaxpayer(ctx context.Context, id uuid.UUID, taxRegistrationNumber string) (*domain.ValidationRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("GetForTaxpayer: %w", domain.ErrNotFound)
	}

	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForTaxpayer: %w", err)
	}
	if run.TaxRegistrationNumber != taxRegistrationNumber {
		return nil, fmt.Errorf("GetForTaxpayer: %w", domain.ErrNotFound)
	}
	return run, nil
}

// checkHeader rejects files the engine cannot meaningfully run over: the
// header period bounds every document date check.
func checkHeader(af *domain.AuditFile) error {
	if af == nil {
		return fmt.Errorf("checkHeader: %w", domain.ErrInvalidAuditFile)
	}
	h := af.Header
	var errs []error
	if h.TaxRegistrationNumber == "" {
		errs = append(errs, errors.New("missing tax registration number"))
	}
	if h.StartDate.IsZero() || h.EndDate.IsZero() {
		errs = append(errs, errors.New("missing fiscal period"))
	} else if h.EndDate.Before(h.StartDate.Time) {
		errs = append(errs, errors.New("fiscal period ends before it starts"))
	}
	if h.CurrencyCode == "" {
		errs = append(errs, errors.New("missing currency code"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("checkHeader: %w: %w", domain.ErrInvalidAuditFile, errors.Join(errs...))
	}
	return nil
}
