package validate

import (
	"cmp"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/config"
	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/masterdata"
	"github.com/josh-kwaku/audit-validator/internal/money"
	"github.com/josh-kwaku/audit-validator/internal/report"
	"github.com/josh-kwaku/audit-validator/internal/signer"
)

// tableRun is the state of validating one table. It is owned by a single
// goroutine for the duration of the table.
type tableRun struct {
	cfg    config.Validation
	signer signer.Signer
	logger *slog.Logger
	file   *domain.Header
	master *masterdata.Index
	sink   *countingSink
	codes  *codeRegistry
	notes  *report.Notes

	table  string
	chain  chain
	debit  money.Value
	credit money.Value
	qty    money.Value
	lines  int
}

type ordered[D any] struct {
	doc    *D
	typ    string
	number domain.DocumentNumber
	parsed bool
}

// sortDocuments orders by (type, series, number). Documents whose number
// cannot be parsed keep their relative order at the end.
func sortDocuments[D any](f family[D], docs []D) []ordered[D] {
	out := make([]ordered[D], len(docs))
	for i := range docs {
		d := &docs[i]
		typ, _ := f.docType(d)
		n, err := domain.ParseDocumentNumber(f.header(d).Number)
		out[i] = ordered[D]{doc: d, typ: typ, number: n, parsed: err == nil}
	}
	slices.SortStableFunc(out, func(a, b ordered[D]) int {
		if a.parsed != b.parsed {
			if a.parsed {
				return -1
			}
			return 1
		}
		if !a.parsed {
			return 0
		}
		return cmp.Or(
			cmp.Compare(a.typ, b.typ),
			cmp.Compare(a.number.SeriesKey(), b.number.SeriesKey()),
			cmp.Compare(a.number.Number, b.number.Number),
		)
	})
	return out
}

func runTable[D any](t *tableRun, f family[D], docs []D, decl domain.TableTotals) (res domain.TableResult) {
	t.table = f.table()
	t.debit = money.Zero(money.ScaleCalc)
	t.credit = money.Zero(money.ScaleCalc)
	t.qty = money.Zero(money.ScaleCalc)
	t.notes.Reset()

	logger := t.logger.With("table", t.table)
	logger.Debug("table validation started", "documents", len(docs))

	res = domain.TableResult{Table: t.table, Declared: decl}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("table validation aborted", "panic", r, "stack", string(debug.Stack()))
			msg := fmt.Sprintf("unexpected fault: %v", r)
			t.notes.AddError(msg, "")
			t.sink.AddExceptionError(report.Entry{Table: t.table, Message: msg})
			res.Valid = false
		}
	}()

	for _, o := range sortDocuments(f, docs) {
		res.Documents = append(res.Documents, validateDocument(t, f, o))
	}

	res.Recomputed = t.reconcile(len(docs), decl, f.lineRules().quantities)
	res.Valid = t.sink.errors == 0

	logger.Info("table validated",
		"valid", res.Valid,
		"errors", t.sink.errors,
		"warnings", t.sink.warnings,
		"documents", len(docs),
	)
	return res
}

// reconcile compares the declared control totals with what was accumulated.
func (t *tableRun) reconcile(entries int, decl domain.TableTotals, quantities bool) domain.TableTotals {
	got := domain.TableTotals{
		NumberOfEntries: entries,
		TotalDebit:      t.debit.Round(money.ScaleTotal).Decimal(),
		TotalCredit:     t.credit.Round(money.ScaleTotal).Decimal(),
	}
	if quantities {
		got.TotalLines = t.lines
		got.TotalQuantityIssued = t.qty.Decimal()
	}

	if decl.NumberOfEntries != entries {
		t.errorf("NumberOfEntries", "declared %d entries, found %d", decl.NumberOfEntries, entries)
	}

	if entries == 0 {
		if !decl.TotalDebit.IsZero() {
			t.errorf("TotalDebit", "empty table declares total debit %s", decl.TotalDebit)
		}
		if !decl.TotalCredit.IsZero() {
			t.errorf("TotalCredit", "empty table declares total credit %s", decl.TotalCredit)
		}
		if quantities && decl.TotalLines != 0 {
			t.errorf("NumberOfMovementLines", "empty table declares %d movement lines", decl.TotalLines)
		}
		if quantities && !decl.TotalQuantityIssued.IsZero() {
			t.errorf("TotalQuantityIssued", "empty table declares quantity issued %s", decl.TotalQuantityIssued)
		}
		return got
	}

	t.compareTotal("TotalDebit", decl.TotalDebit, t.debit)
	t.compareTotal("TotalCredit", decl.TotalCredit, t.credit)
	if quantities {
		if decl.TotalLines != t.lines {
			t.errorf("NumberOfMovementLines", "declared %d movement lines, found %d", decl.TotalLines, t.lines)
		}
		t.compareTotal("TotalQuantityIssued", decl.TotalQuantityIssued, t.qty)
	}
	return got
}

func (t *tableRun) compareTotal(field string, declared decimal.Decimal, got money.Value) {
	if got.Differs(declared, t.cfg.DeltaTable) {
		t.errorf(field, "declared %s, recomputed %s", declared, got.Round(money.ScaleTotal))
	}
}

func (t *tableRun) errorf(field, format string, args ...any) {
	t.tableError("", field, fmt.Sprintf(format, args...))
}

func (t *tableRun) tableError(document, field, msg string) {
	t.notes.AddError(msg, field)
	t.sink.AddValidationError(report.Entry{Table: t.table, Document: document, Field: field, Message: msg})
}
