package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/audit-validator/internal/report"
)

const (
	TableSalesInvoices    = "SalesInvoices"
	TablePayments         = "Payments"
	TableWorkingDocuments = "WorkingDocuments"
	TableMovementOfGoods  = "MovementOfGoods"
)

type TableResult struct {
	Table      string
	Valid      bool
	Declared   TableTotals
	Recomputed TableTotals
	Documents  []DocumentResult
}

type DocumentResult struct {
	Number     string
	Valid      bool
	Recomputed RecomputedTotals
}

// ValidationRun is the outcome of validating one audit file.
type ValidationRun struct {
	ID                    uuid.UUID
	TaxRegistrationNumber string
	FiscalYear            int
	Valid                 bool
	Entries               []report.Entry
	Tables                []TableResult
	CreatedAt             time.Time
}

func (r *ValidationRun) ErrorCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Severity != report.SeverityWarning {
			n++
		}
	}
	return n
}

func (r *ValidationRun) WarningCount() int {
	return len(r.Entries) - r.ErrorCount()
}
