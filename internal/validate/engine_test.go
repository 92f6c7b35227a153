package validate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/audit-validator/internal/config"
	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/masterdata"
	"github.com/josh-kwaku/audit-validator/internal/report"
	"github.com/josh-kwaku/audit-validator/internal/testutil"
)

func runEngine(t *testing.T, af *domain.AuditFile, cfg config.Validation) (Result, *report.Register) {
	t.Helper()
	reg := report.NewRegister()
	idx := masterdata.NewIndex(&af.MasterFiles, reg)
	e := NewEngine(cfg, testutil.Signer(t).Verifier())
	return e.Run(context.Background(), af, idx, reg), reg
}

func fields(entries []report.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Field)
	}
	return out
}

func setInvoiceLines(inv *domain.Invoice, lines ...domain.Line) {
	inv.Lines = nil
	for _, l := range lines {
		inv.Lines = append(inv.Lines, domain.InvoiceLine{Line: l})
	}
	inv.Totals = testutil.Totals(lines...)
}

func addInvoice(af *domain.AuditFile, number string, day int, lines ...domain.Line) {
	af.SalesInvoices.Invoices = append(af.SalesInvoices.Invoices,
		testutil.Invoice(number, domain.InvoiceTypeInvoice, testutil.Day(time.March, day), testutil.At(time.March, day, 10), lines...))
}

func TestRun_ValidFile(t *testing.T) {
	af := testutil.AuditFile(t)

	res, reg := runEngine(t, af, config.DefaultValidation())

	require.Empty(t, reg.Entries())
	assert.True(t, res.Valid)
	require.Len(t, res.Tables, 4)
	for _, tr := range res.Tables {
		assert.True(t, tr.Valid, tr.Table)
		assert.Len(t, tr.Documents, 1, tr.Table)
	}

	inv := af.SalesInvoices.Invoices[0]
	require.NotNil(t, inv.Recomputed)
	assert.True(t, inv.Recomputed.NetTotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, inv.Recomputed.TaxPayable.Equal(decimal.RequireFromString("4.60")))
	assert.True(t, inv.Recomputed.GrossTotal.Equal(decimal.RequireFromString("24.60")))
	assert.True(t, inv.Recomputed.Lines[1].Equal(decimal.RequireFromString("24.60")))

	require.NotNil(t, af.SalesInvoices.Recomputed)
	assert.True(t, af.SalesInvoices.Recomputed.TotalCredit.Equal(decimal.RequireFromString("20")))
	assert.Equal(t, 1, af.MovementOfGoods.Recomputed.TotalLines)
	assert.True(t, af.MovementOfGoods.Recomputed.TotalQuantityIssued.Equal(decimal.RequireFromString("3")))
}

func TestRun_GrossMismatch(t *testing.T) {
	af := testutil.AuditFile(t)
	inv := &af.SalesInvoices.Invoices[0]
	inv.Totals.GrossTotal = decimal.RequireFromString("25.00")
	testutil.Seal(t, af)

	res, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, "GrossTotal", e.Field)
		assert.Equal(t, domain.TableSalesInvoices, e.Table)
		assert.Equal(t, "FT A/1", e.Document)
	}
	assert.Empty(t, reg.Warnings(), "signature still verifies")
	assert.False(t, res.Valid)
	assert.Len(t, inv.Errors(), 2)
	assert.False(t, res.Tables[0].Documents[0].Valid)
	assert.True(t, inv.Recomputed.GrossTotal.Equal(decimal.RequireFromString("24.60")))
}

func TestRun_SequenceGap(t *testing.T) {
	af := testutil.AuditFile(t)
	addInvoice(af, "FT A/3", 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
	testutil.Seal(t, af)

	res, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "FT A/2", errs[0].Document)
	assert.Equal(t, "Number", errs[0].Field)
	assert.Contains(t, errs[0].Message, "missing document FT A/2")

	docs := res.Tables[0].Documents
	require.Len(t, docs, 2)
	assert.True(t, docs[0].Valid)
	assert.True(t, docs[1].Valid)
	assert.False(t, res.Tables[0].Valid)
}

func TestRun_SequenceGapLimit(t *testing.T) {
	tests := []struct {
		name     string
		next     int
		wantErrs int
		wantMsg  string
	}{
		{name: "listed up to the limit", next: maxListedGap + 2, wantErrs: maxListedGap, wantMsg: "missing document FT A/2"},
		{name: "range above the limit", next: maxListedGap + 3, wantErrs: 1, wantMsg: fmt.Sprintf("missing documents FT A/2..FT A/%d (%d documents)", maxListedGap+2, maxListedGap+1)},
		{name: "huge number", next: 2_000_000_001, wantErrs: 1, wantMsg: "missing documents FT A/2..FT A/2000000000 (1999999999 documents)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			addInvoice(af, fmt.Sprintf("FT A/%d", tc.next), 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
			testutil.Seal(t, af)

			res, reg := runEngine(t, af, config.DefaultValidation())

			errs := reg.Errors()
			require.Len(t, errs, tc.wantErrs)
			assert.Equal(t, "FT A/2", errs[0].Document)
			assert.Equal(t, tc.wantMsg, errs[0].Message)
			assert.Len(t, af.SalesInvoices.Errors(), tc.wantErrs)
			assert.False(t, res.Tables[0].Valid)
		})
	}
}

func TestRun_SequenceIsIdempotent(t *testing.T) {
	af := testutil.AuditFile(t)
	addInvoice(af, "FT A/4", 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
	testutil.Seal(t, af)

	_, first := runEngine(t, af, config.DefaultValidation())
	_, second := runEngine(t, af, config.DefaultValidation())

	require.Len(t, first.Errors(), 2)
	assert.Equal(t, first.Errors(), second.Errors())
	assert.Len(t, af.SalesInvoices.Errors(), 2)
}

func TestRun_DuplicateNumber(t *testing.T) {
	af := testutil.AuditFile(t)
	addInvoice(af, "FT A/1", 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
	testutil.Seal(t, af)

	_, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.NotEmpty(t, errs)
	assert.Equal(t, "Number", errs[0].Field)
	assert.Contains(t, errs[0].Message, "duplicate")
}

func TestRun_UnorderedInput(t *testing.T) {
	af := testutil.AuditFile(t)
	addInvoice(af, "FT A/2", 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
	testutil.Seal(t, af)
	invs := af.SalesInvoices.Invoices
	invs[0], invs[1] = invs[1], invs[0]

	res, reg := runEngine(t, af, config.DefaultValidation())

	assert.Empty(t, reg.Entries())
	assert.Equal(t, "FT A/1", res.Tables[0].Documents[0].Number)
	assert.Equal(t, "FT A/2", res.Tables[0].Documents[1].Number)
}

func TestRun_SignatureChain(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(af *domain.AuditFile)
		cfg      func(c *config.Validation)
		warnings int
		errors   int
	}{
		{
			name: "first document of a series is a warning",
			mutate: func(af *domain.AuditFile) {
				// the series continues a chain started outside this file
				s := testutil.Signer(t)
				invs := af.SalesInvoices.Invoices
				first, err := s.Sign(invs[0].Date, invs[0].SystemEntryDate, invs[0].Number, invs[0].Totals.GrossTotal, "previous-file-hash")
				require.NoError(t, err)
				second, err := s.Sign(invs[1].Date, invs[1].SystemEntryDate, invs[1].Number, invs[1].Totals.GrossTotal, first)
				require.NoError(t, err)
				invs[0].Hash, invs[1].Hash = first, second
			},
			warnings: 1,
		},
		{
			name:     "unverifiable first document breaks the chain for the next one",
			mutate:   func(af *domain.AuditFile) { af.SalesInvoices.Invoices[0].Hash = "bm90IGEgc2lnbmF0dXJl" },
			warnings: 1,
			errors:   1,
		},
		{
			name:   "later document is an error",
			mutate: func(af *domain.AuditFile) { af.SalesInvoices.Invoices[1].Hash = "bm90IGEgc2lnbmF0dXJl" },
			errors: 1,
		},
		{
			name: "later document signed against the wrong previous hash",
			mutate: func(af *domain.AuditFile) {
				inv := &af.SalesInvoices.Invoices[1]
				hash, err := testutil.Signer(t).Sign(inv.Date, inv.SystemEntryDate, inv.Number, inv.Totals.GrossTotal, "")
				require.NoError(t, err)
				inv.Hash = hash
			},
			errors: 1,
		},
		{
			name: "integrated documents are not verified",
			mutate: func(af *domain.AuditFile) {
				inv := &af.SalesInvoices.Invoices[1]
				inv.Hash = "x"
				inv.DocumentStatus.SourceBilling = domain.SourceBillingIntegrated
			},
		},
		{
			name: "verification disabled",
			mutate: func(af *domain.AuditFile) {
				af.SalesInvoices.Invoices[0].Hash = "x"
				af.SalesInvoices.Invoices[1].Hash = "y"
			},
			cfg: func(c *config.Validation) { c.SignValidation = false },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			addInvoice(af, "FT A/2", 2, testutil.Line(1, testutil.ProductCode, "1", "10.00"))
			testutil.Seal(t, af)
			tc.mutate(af)

			cfg := config.DefaultValidation()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			_, reg := runEngine(t, af, cfg)

			assert.Len(t, reg.Warnings(), tc.warnings)
			assert.Len(t, reg.Errors(), tc.errors)
			for _, e := range reg.Entries() {
				assert.Equal(t, "Hash", e.Field)
			}
		})
	}
}

func TestRun_Dates(t *testing.T) {
	t.Run("document precedes previous in series", func(t *testing.T) {
		af := testutil.AuditFile(t)
		af.SalesInvoices.Invoices = append(af.SalesInvoices.Invoices,
			testutil.Invoice("FT A/2", domain.InvoiceTypeInvoice, testutil.Day(time.February, 28), testutil.At(time.March, 2, 10),
				testutil.Line(1, testutil.ProductCode, "1", "10.00")))
		testutil.Seal(t, af)

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Equal(t, []string{"Date"}, fields(reg.Errors()))
	})

	t.Run("outside the audit period", func(t *testing.T) {
		af := testutil.AuditFile(t)
		wd := &af.WorkingDocuments.WorkDocuments[0]
		wd.Date = domain.NewDate(2023, time.December, 31)
		wd.SystemEntryDate = domain.NewDateTime(2023, time.December, 31, 9, 0, 0)
		wd.DocumentStatus.StatusDate = wd.SystemEntryDate
		testutil.Seal(t, af)

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Equal(t, []string{"Date"}, fields(reg.Errors()))
	})

	t.Run("date after system entry is a warning", func(t *testing.T) {
		af := testutil.AuditFile(t)
		inv := &af.SalesInvoices.Invoices[0]
		inv.Date = testutil.Day(time.March, 2)
		inv.DocumentStatus.StatusDate = testutil.At(time.March, 2, 10)
		testutil.Seal(t, af)

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Empty(t, reg.Errors())
		assert.Equal(t, []string{"Date"}, fields(reg.Warnings()))
	})
}

func TestRun_Status(t *testing.T) {
	af := testutil.AuditFile(t)
	inv := &af.SalesInvoices.Invoices[0]
	inv.DocumentStatus.Status = domain.InvoiceStatusCancelled
	inv.DocumentStatus.StatusDate = testutil.At(time.February, 28, 10)
	testutil.Seal(t, af)

	res, reg := runEngine(t, af, config.DefaultValidation())

	assert.ElementsMatch(t, []string{"StatusDate", "Reason"}, fields(reg.Errors()))
	// cancelled documents stay out of the table totals
	assert.True(t, res.Tables[0].Recomputed.TotalCredit.IsZero())
}

func TestRun_LineArithmetic(t *testing.T) {
	af := testutil.AuditFile(t)
	inv := &af.SalesInvoices.Invoices[0]
	l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
	l.CreditAmount = testutil.Dec("20.01")
	setInvoiceLines(inv, l)
	testutil.Seal(t, af)

	_, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "CreditAmount", errs[0].Field)
	require.NotNil(t, errs[0].Line)
	assert.Equal(t, 1, *errs[0].Line)
	assert.Len(t, inv.Lines[0].Errors(), 1)
}

func TestRun_LineStructure(t *testing.T) {
	tests := []struct {
		name   string
		line   func() domain.Line
		fields []string
	}{
		{
			name: "no quantity",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.Quantity = nil
				return l
			},
			fields: []string{"Quantity"},
		},
		{
			name: "neither debit nor credit",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.CreditAmount = nil
				return l
			},
			fields: []string{"CreditAmount"},
		},
		{
			name: "both debit and credit",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.DebitAmount = testutil.Dec("20.00")
				return l
			},
			fields: []string{"DebitAmount"},
		},
		{
			name: "unknown product",
			line: func() domain.Line {
				return testutil.Line(1, "NOPE", "2", "10.00")
			},
			fields: []string{"ProductCode"},
		},
		{
			name: "no tax",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.Tax = nil
				return l
			},
			fields: []string{"Tax"},
		},
		{
			name: "tax code not valid for IVA",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.Tax.TaxCode = "XYZ"
				return l
			},
			fields: []string{"TaxCode"},
		},
		{
			name: "no matching tax table entry",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.Tax.TaxPercentage = testutil.Dec("13")
				return l
			},
			fields: []string{"Tax"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			inv := &af.SalesInvoices.Invoices[0]
			l := tc.line()
			// keep document totals untouched so only the line finding shows
			totals := inv.Totals
			setInvoiceLines(inv, l)
			inv.Totals = totals
			af.SalesInvoices.TotalCredit = decimal.RequireFromString("20.00")
			testutil.Sign(t, af)

			_, reg := runEngine(t, af, config.DefaultValidation())

			var got []string
			for _, e := range reg.Errors() {
				if e.Line != nil {
					got = append(got, e.Field)
				}
			}
			assert.Equal(t, tc.fields, got)
		})
	}
}

func TestRun_Exemption(t *testing.T) {
	tests := []struct {
		name   string
		line   domain.Line
		fields []string
	}{
		{
			name:   "zero rate without exemption",
			line:   testutil.Exempt(testutil.Line(1, testutil.ProductCode, "2", "10.00"), "", ""),
			fields: []string{"TaxExemptionCode", "TaxExemptionReason"},
		},
		{
			name:   "zero rate without reason",
			line:   testutil.Exempt(testutil.Line(1, testutil.ProductCode, "2", "10.00"), "M07", ""),
			fields: []string{"TaxExemptionReason"},
		},
		{
			name: "zero rate with exemption",
			line: testutil.Exempt(testutil.Line(1, testutil.ProductCode, "2", "10.00"), "M07", "Isento artigo 9.º do CIVA"),
		},
		{
			name: "exemption on a taxed line",
			line: func() domain.Line {
				l := testutil.Line(1, testutil.ProductCode, "2", "10.00")
				l.TaxExemptionCode = testutil.Str("M07")
				return l
			}(),
			fields: []string{"TaxExemptionCode"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			setInvoiceLines(&af.SalesInvoices.Invoices[0], tc.line)
			testutil.Seal(t, af)

			_, reg := runEngine(t, af, config.DefaultValidation())

			assert.Equal(t, tc.fields, nilIfEmpty(fields(reg.Errors())))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestRun_LineNumbering(t *testing.T) {
	tests := []struct {
		name       string
		continuous bool
		numbers    []int
		errors     int
	}{
		{name: "strict sequence", continuous: true, numbers: []int{1, 2, 3}},
		{name: "strict gap", continuous: true, numbers: []int{1, 3, 4}, errors: 1},
		{name: "gap allowed", continuous: false, numbers: []int{1, 3, 4}},
		{name: "duplicate", continuous: false, numbers: []int{1, 3, 3, 3}, errors: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			var lines []domain.Line
			for _, n := range tc.numbers {
				lines = append(lines, testutil.Line(n, testutil.ProductCode, "1", "10.00"))
			}
			setInvoiceLines(&af.SalesInvoices.Invoices[0], lines...)
			testutil.Seal(t, af)

			cfg := config.DefaultValidation()
			cfg.ContinuousLines = tc.continuous
			_, reg := runEngine(t, af, cfg)

			errs := reg.Errors()
			assert.Len(t, errs, tc.errors)
			for _, e := range errs {
				assert.Equal(t, "LineNumber", e.Field)
			}
		})
	}
}

func TestRun_RecomputedLinesKeyedByPosition(t *testing.T) {
	af := testutil.AuditFile(t)
	unnumbered := testutil.Line(0, testutil.ProductCode, "1", "10.00")
	unnumbered.LineNumber = nil
	setInvoiceLines(&af.SalesInvoices.Invoices[0],
		unnumbered,
		testutil.Line(1, testutil.ProductCode, "1", "10.00"),
		testutil.Line(1, testutil.ProductCode, "2", "10.00"),
	)
	testutil.Seal(t, af)

	cfg := config.DefaultValidation()
	cfg.ContinuousLines = false
	runEngine(t, af, cfg)

	lines := af.SalesInvoices.Invoices[0].Recomputed.Lines
	require.Len(t, lines, 3)
	assert.True(t, lines[1].Equal(decimal.RequireFromString("12.30")))
	assert.True(t, lines[2].Equal(decimal.RequireFromString("12.30")))
	assert.True(t, lines[3].Equal(decimal.RequireFromString("24.60")))
}

func TestRun_MixedDebitCredit(t *testing.T) {
	tests := []struct {
		name    string
		allow   bool
		debitQt string
		fields  []string
	}{
		{name: "not allowed", debitQt: "1", fields: []string{"Lines"}},
		{name: "allowed within original", allow: true, debitQt: "1"},
		{name: "allowed but exceeding original", allow: true, debitQt: "3", fields: []string{"Quantity", "Lines"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			setInvoiceLines(&af.SalesInvoices.Invoices[0],
				testutil.Line(1, testutil.ProductCode, "2", "10.00"),
				testutil.Debit(testutil.Line(2, testutil.ProductCode, tc.debitQt, "10.00")),
			)
			testutil.Seal(t, af)

			cfg := config.DefaultValidation()
			cfg.AllowDebitAndCredit = tc.allow
			_, reg := runEngine(t, af, cfg)

			assert.Equal(t, tc.fields, nilIfEmpty(fields(reg.Errors())))
		})
	}
}

func TestRun_TableTotals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(af *domain.AuditFile)
		fields []string
	}{
		{
			name:   "credit within tolerance",
			mutate: func(af *domain.AuditFile) { af.SalesInvoices.TotalCredit = decimal.RequireFromString("20.01") },
		},
		{
			name:   "credit out of tolerance",
			mutate: func(af *domain.AuditFile) { af.SalesInvoices.TotalCredit = decimal.RequireFromString("20.02") },
			fields: []string{"TotalCredit"},
		},
		{
			name:   "entry count",
			mutate: func(af *domain.AuditFile) { af.SalesInvoices.NumberOfEntries = 2 },
			fields: []string{"NumberOfEntries"},
		},
		{
			name: "empty table with zero totals",
			mutate: func(af *domain.AuditFile) {
				af.WorkingDocuments = &domain.WorkingDocuments{}
			},
		},
		{
			name: "empty table declaring totals",
			mutate: func(af *domain.AuditFile) {
				af.WorkingDocuments = &domain.WorkingDocuments{
					TableHeader: domain.TableHeader{TotalCredit: decimal.RequireFromString("0.01")},
				}
			},
			fields: []string{"TotalCredit"},
		},
		{
			name:   "movement lines",
			mutate: func(af *domain.AuditFile) { af.MovementOfGoods.NumberOfMovementLines = 2 },
			fields: []string{"NumberOfMovementLines"},
		},
		{
			name:   "movement quantity",
			mutate: func(af *domain.AuditFile) { af.MovementOfGoods.TotalQuantityIssued = decimal.RequireFromString("4") },
			fields: []string{"TotalQuantityIssued"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			tc.mutate(af)

			res, reg := runEngine(t, af, config.DefaultValidation())

			assert.Equal(t, tc.fields, nilIfEmpty(fields(reg.Errors())))
			assert.Equal(t, len(tc.fields) == 0, res.Valid)
			for _, e := range reg.Errors() {
				assert.Empty(t, e.Document)
			}
		})
	}
}

func TestRun_CrossFamilyCodes(t *testing.T) {
	af := testutil.AuditFile(t)
	af.Payments.Payments[0].Number = "FT R/1"
	testutil.Seal(t, af)

	res, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, domain.TablePayments, errs[0].Table)
	assert.Equal(t, "FT R/1", errs[0].Document)
	assert.False(t, res.Valid)
	for _, tr := range res.Tables {
		assert.True(t, tr.Valid, tr.Table)
	}
}

func TestRun_MissingPrecondition(t *testing.T) {
	af := testutil.AuditFile(t)
	af.SalesInvoices.Invoices[0].Number = "FTA1"
	testutil.Seal(t, af)

	res, reg := runEngine(t, af, config.DefaultValidation())

	assert.ElementsMatch(t, []string{"Number", "TotalCredit"}, fields(reg.Errors()))
	doc := res.Tables[0].Documents[0]
	assert.False(t, doc.Valid)
	assert.True(t, doc.Recomputed.GrossTotal.IsZero())
}

func TestRun_Currency(t *testing.T) {
	t.Run("file currency", func(t *testing.T) {
		af := testutil.AuditFile(t)
		af.SalesInvoices.Invoices[0].Totals.Currency = &domain.Currency{
			CurrencyCode: "EUR", CurrencyAmount: testutil.Dec("24.60"), ExchangeRate: testutil.Dec("1"),
		}

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Equal(t, []string{"CurrencyCode"}, fields(reg.Errors()))
	})

	t.Run("converted amount", func(t *testing.T) {
		af := testutil.AuditFile(t)
		inv := &af.SalesInvoices.Invoices[0]
		inv.Totals.Currency = &domain.Currency{
			CurrencyCode: "USD", CurrencyAmount: testutil.Dec("27.00"), ExchangeRate: testutil.Dec("0.9111"),
		}

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Empty(t, reg.Errors())
		require.NotNil(t, inv.Recomputed.GrossFromCurrency)
		assert.True(t, inv.Recomputed.GrossFromCurrency.Equal(decimal.RequireFromString("24.60")))
	})

	t.Run("rate mismatch", func(t *testing.T) {
		af := testutil.AuditFile(t)
		af.SalesInvoices.Invoices[0].Totals.Currency = &domain.Currency{
			CurrencyCode: "USD", CurrencyAmount: testutil.Dec("27.00"), ExchangeRate: testutil.Dec("0.95"),
		}

		_, reg := runEngine(t, af, config.DefaultValidation())

		assert.Equal(t, []string{"ExchangeRate"}, fields(reg.Errors()))
	})
}

func TestRun_InvoiceExtras(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(inv *domain.Invoice)
		fields []string
	}{
		{
			name: "outdated document type",
			mutate: func(inv *domain.Invoice) {
				inv.InvoiceType = domain.InvoiceTypeCashSale
				inv.Number = "VD A/1"
			},
			fields: []string{"InvoiceType"},
		},
		{
			name: "credit note line without reference",
			mutate: func(inv *domain.Invoice) {
				inv.InvoiceType = domain.InvoiceTypeCreditNote
				inv.Number = "NC A/1"
			},
			fields: []string{"References"},
		},
		{
			name: "credit note line with reference",
			mutate: func(inv *domain.Invoice) {
				inv.InvoiceType = domain.InvoiceTypeCreditNote
				inv.Number = "NC A/1"
				inv.Lines[0].References = []domain.Reference{{Reference: "FT A/0", Reason: "return"}}
			},
		},
		{
			name: "self billing on a receipt type",
			mutate: func(inv *domain.Invoice) {
				inv.InvoiceType = domain.InvoiceTypePremium
				inv.Number = "RP A/1"
				inv.DocumentStatus.Status = domain.InvoiceStatusSelfBilling
			},
			fields: []string{"Status"},
		},
		{
			name: "payment methods do not cover gross",
			mutate: func(inv *domain.Invoice) {
				inv.Totals.PaymentMethods = []domain.PaymentMethod{{PaymentMechanism: "NU", PaymentAmount: decimal.RequireFromString("20.00")}}
			},
			fields: []string{"PaymentAmount"},
		},
		{
			name: "payment methods cover gross less withholding",
			mutate: func(inv *domain.Invoice) {
				inv.WithholdingTax = []domain.WithholdingTax{{WithholdingTaxType: domain.WithholdingTaxIRS, WithholdingTaxAmount: decimal.RequireFromString("4.60")}}
				inv.Totals.PaymentMethods = []domain.PaymentMethod{{PaymentMechanism: "NU", PaymentAmount: decimal.RequireFromString("20.00")}}
			},
		},
		{
			name: "withholding above gross",
			mutate: func(inv *domain.Invoice) {
				inv.WithholdingTax = []domain.WithholdingTax{{WithholdingTaxType: domain.WithholdingTaxIRS, WithholdingTaxAmount: decimal.RequireFromString("30")}}
			},
			fields: []string{"WithholdingTaxAmount"},
		},
		{
			name: "movement ends before it starts",
			mutate: func(inv *domain.Invoice) {
				start := testutil.At(time.March, 1, 12)
				end := testutil.At(time.March, 1, 11)
				inv.MovementStartTime, inv.MovementEndTime = &start, &end
			},
			fields: []string{"MovementEndTime"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			tc.mutate(&af.SalesInvoices.Invoices[0])
			testutil.Seal(t, af)

			_, reg := runEngine(t, af, config.DefaultValidation())

			assert.Equal(t, tc.fields, nilIfEmpty(fields(reg.Errors())))
		})
	}
}

func TestRun_SalesDocumentsRejectSupplier(t *testing.T) {
	tests := []struct {
		name  string
		table string
		set   func(af *domain.AuditFile, id *string)
	}{
		{name: "invoice", table: domain.TableSalesInvoices, set: func(af *domain.AuditFile, id *string) { af.SalesInvoices.Invoices[0].SupplierID = id }},
		{name: "payment", table: domain.TablePayments, set: func(af *domain.AuditFile, id *string) { af.Payments.Payments[0].SupplierID = id }},
		{name: "working document", table: domain.TableWorkingDocuments, set: func(af *domain.AuditFile, id *string) { af.WorkingDocuments.WorkDocuments[0].SupplierID = id }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			tc.set(af, testutil.Str(testutil.SupplierID))
			testutil.Seal(t, af)

			_, reg := runEngine(t, af, config.DefaultValidation())

			errs := reg.Errors()
			require.Len(t, errs, 1)
			assert.Equal(t, "SupplierID", errs[0].Field)
			assert.Equal(t, tc.table, errs[0].Table)
		})
	}
}

func TestRun_PaymentExtras(t *testing.T) {
	af := testutil.AuditFile(t)
	p := &af.Payments.Payments[0]
	p.Totals.PaymentMethods = nil
	p.Lines[0].SourceDocumentIDs = nil
	testutil.Seal(t, af)

	_, reg := runEngine(t, af, config.DefaultValidation())

	assert.ElementsMatch(t, []string{"PaymentMethod", "SourceDocumentID"}, fields(reg.Errors()))
}

func TestRun_MovementParties(t *testing.T) {
	tests := []struct {
		name     string
		typ      domain.MovementType
		customer *string
		supplier *string
		fields   []string
	}{
		{name: "delivery to customer", typ: domain.MovementTypeDelivery, customer: testutil.Str(testutil.CustomerID)},
		{name: "delivery to supplier", typ: domain.MovementTypeDelivery, supplier: testutil.Str(testutil.SupplierID), fields: []string{"CustomerID"}},
		{name: "return to supplier", typ: domain.MovementTypeReturn, supplier: testutil.Str(testutil.SupplierID)},
		{name: "return without supplier", typ: domain.MovementTypeReturn, customer: testutil.Str(testutil.CustomerID), fields: []string{"SupplierID"}},
		{name: "own assets", typ: domain.MovementTypeOwnAssets},
		{name: "transport without party", typ: domain.MovementTypeTransport, fields: []string{"CustomerID"}},
		{
			name: "both parties", typ: domain.MovementTypeTransport,
			customer: testutil.Str(testutil.CustomerID), supplier: testutil.Str(testutil.SupplierID),
			fields: []string{"CustomerID"},
		},
		{name: "unknown supplier", typ: domain.MovementTypeTransport, supplier: testutil.Str("S999"), fields: []string{"SupplierID"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			af := testutil.AuditFile(t)
			m := &af.MovementOfGoods.StockMovements[0]
			m.MovementType = tc.typ
			m.CustomerID, m.SupplierID = tc.customer, tc.supplier
			testutil.Seal(t, af)

			_, reg := runEngine(t, af, config.DefaultValidation())

			assert.Equal(t, tc.fields, nilIfEmpty(fields(reg.Errors())))
		})
	}
}

func TestRun_MovementServiceProduct(t *testing.T) {
	af := testutil.AuditFile(t)
	m := &af.MovementOfGoods.StockMovements[0]
	m.Lines[0].ProductCode = testutil.ServiceCode
	m.MovementStartTime = nil
	testutil.Seal(t, af)

	_, reg := runEngine(t, af, config.DefaultValidation())

	assert.Equal(t, []string{"MovementStartTime"}, fields(reg.Errors()))
	assert.Equal(t, []string{"ProductCode"}, fields(reg.Warnings()))
}

func TestRun_ExpiredTaxRate(t *testing.T) {
	af := testutil.AuditFile(t)
	exp := testutil.Day(time.March, 1)
	af.MasterFiles.TaxTable[0].TaxExpirationDate = &exp

	_, reg := runEngine(t, af, config.DefaultValidation())

	errs := reg.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, domain.TableSalesInvoices, errs[0].Table)
	assert.Equal(t, domain.TableMovementOfGoods, errs[1].Table)
	assert.Equal(t, []string{"Tax", "Tax"}, fields(errs))
}

func TestRun_FaultBecomesException(t *testing.T) {
	af := testutil.AuditFile(t)
	af.Payments, af.WorkingDocuments, af.MovementOfGoods = nil, nil, nil

	reg := report.NewRegister()
	res := NewEngine(config.DefaultValidation(), testutil.Signer(t).Verifier()).
		Run(context.Background(), af, nil, reg)

	assert.False(t, res.Valid)
	require.Len(t, res.Tables, 1)
	assert.False(t, res.Tables[0].Valid)
	require.Len(t, reg.Exceptions(), 1)
	assert.Equal(t, domain.TableSalesInvoices, reg.Exceptions()[0].Table)
	assert.NotEmpty(t, af.SalesInvoices.Errors())
}

func TestRun_Revalidation(t *testing.T) {
	af := testutil.AuditFile(t)
	af.SalesInvoices.Invoices[0].Totals.GrossTotal = decimal.RequireFromString("25.00")
	testutil.Seal(t, af)

	_, reg := runEngine(t, af, config.DefaultValidation())
	require.NotEmpty(t, reg.Errors())

	af.SalesInvoices.Invoices[0].Totals.GrossTotal = decimal.RequireFromString("24.60")
	testutil.Seal(t, af)

	_, reg = runEngine(t, af, config.DefaultValidation())
	assert.Empty(t, reg.Entries())
	assert.Empty(t, af.SalesInvoices.Invoices[0].Errors())
}
