// Package validate reconciles the source-document tables of an audit file:
// document sequences and signature chains, line and document arithmetic, tax
// table cross-references and the declared table control totals.
package validate

import (
	"context"
	"log/slog"

	"github.com/josh-kwaku/audit-validator/internal/config"
	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/logging"
	"github.com/josh-kwaku/audit-validator/internal/masterdata"
	"github.com/josh-kwaku/audit-validator/internal/report"
	"github.com/josh-kwaku/audit-validator/internal/signer"
)

type Engine struct {
	cfg    config.Validation
	signer signer.Signer
}

func NewEngine(cfg config.Validation, s signer.Signer) *Engine {
	if s == nil {
		s = signer.Accept{}
	}
	return &Engine{cfg: cfg, signer: s}
}

// Result is the engine verdict. Master data findings reported to the sink by
// other components are not part of it.
type Result struct {
	Valid  bool
	Tables []domain.TableResult
}

// Run validates every table present in af, in a fixed order, then checks
// that document codes are used consistently across tables. Findings go to
// sink and to the Notes of the offending entity; recomputed totals are
// attached to documents and tables.
func (e *Engine) Run(ctx context.Context, af *domain.AuditFile, master *masterdata.Index, sink report.Sink) Result {
	logger := logging.FromContext(ctx)
	codes := newCodeRegistry()
	res := Result{Valid: true}

	add := func(tr domain.TableResult) {
		res.Tables = append(res.Tables, tr)
		res.Valid = res.Valid && tr.Valid
	}

	if t := af.SalesInvoices; t != nil {
		tr := runTable[domain.Invoice](e.newTableRun(logger, af, master, sink, codes, &t.Notes), invoiceFamily{}, t.Invoices, declared(t.TableHeader))
		t.Recomputed = &tr.Recomputed
		add(tr)
	}
	if t := af.Payments; t != nil {
		tr := runTable[domain.Payment](e.newTableRun(logger, af, master, sink, codes, &t.Notes), paymentFamily{}, t.Payments, declared(t.TableHeader))
		t.Recomputed = &tr.Recomputed
		add(tr)
	}
	if t := af.WorkingDocuments; t != nil {
		tr := runTable[domain.WorkDocument](e.newTableRun(logger, af, master, sink, codes, &t.Notes), workFamily{}, t.WorkDocuments, declared(t.TableHeader))
		t.Recomputed = &tr.Recomputed
		add(tr)
	}
	if t := af.MovementOfGoods; t != nil {
		d := declared(t.TableHeader)
		d.TotalLines = t.NumberOfMovementLines
		d.TotalQuantityIssued = t.TotalQuantityIssued
		tr := runTable[domain.StockMovement](e.newTableRun(logger, af, master, sink, codes, &t.Notes), movementFamily{}, t.StockMovements, d)
		t.Recomputed = &tr.Recomputed
		add(tr)
	}

	if !codes.check(sink) {
		res.Valid = false
	}
	return res
}

func declared(h domain.TableHeader) domain.TableTotals {
	return domain.TableTotals{
		NumberOfEntries: h.NumberOfEntries,
		TotalDebit:      h.TotalDebit,
		TotalCredit:     h.TotalCredit,
	}
}

func (e *Engine) newTableRun(logger *slog.Logger, af *domain.AuditFile, master *masterdata.Index, sink report.Sink, codes *codeRegistry, notes *report.Notes) *tableRun {
	return &tableRun{
		cfg:    e.cfg,
		signer: e.signer,
		logger: logger,
		file:   &af.Header,
		master: master,
		sink:   &countingSink{sink: sink},
		codes:  codes,
		notes:  notes,
	}
}

type countingSink struct {
	sink     report.Sink
	errors   int
	warnings int
}

func (s *countingSink) AddValidationError(e report.Entry) {
	s.errors++
	s.sink.AddValidationError(e)
}

func (s *countingSink) AddWarning(e report.Entry) {
	s.warnings++
	s.sink.AddWarning(e)
}

func (s *countingSink) AddExceptionError(e report.Entry) {
	s.errors++
	s.sink.AddExceptionError(e)
}
