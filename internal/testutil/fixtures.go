package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/domain"
	"github.com/josh-kwaku/audit-validator/internal/signer"
)

const (
	TaxRegistrationNumber = "500100144"
	CustomerID            = "C001"
	SupplierID            = "S001"
	ProductCode           = "P001"
	ServiceCode           = "SRV01"
)

var signingKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

// Signer returns a signer backed by a key shared by every test in the
// process.
func Signer(t testing.TB) *signer.RSASigner {
	t.Helper()
	key, err := signingKey()
	if err != nil {
		t.Fatalf("generate signing key: %v", err)
	}
	return signer.NewRSASigner(key)
}

func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func Int(n int) *int       { return &n }
func Str(s string) *string { return &s }

func Day(month time.Month, day int) domain.Date {
	return domain.NewDate(2024, month, day)
}

func At(month time.Month, day, hour int) domain.DateTime {
	return domain.NewDateTime(2024, month, day, hour, 0, 0)
}

// Line is a credit line taxed at the normal mainland VAT rate. The amount is
// quantity times price.
func Line(n int, product, qty, price string) domain.Line {
	amount := decimal.RequireFromString(qty).Mul(decimal.RequireFromString(price)).Round(2)
	return domain.Line{
		LineNumber:         Int(n),
		ProductCode:        product,
		ProductDescription: "fixture " + product,
		Quantity:           Dec(qty),
		UnitOfMeasure:      "UN",
		UnitPrice:          Dec(price),
		Description:        "fixture line",
		CreditAmount:       &amount,
		Tax: &domain.Tax{
			TaxType:          domain.TaxTypeIVA,
			TaxCountryRegion: "PT",
			TaxCode:          domain.TaxCodeNormal,
			TaxPercentage:    Dec("23"),
		},
	}
}

// Debit moves the amount of l to the debit side.
func Debit(l domain.Line) domain.Line {
	l.DebitAmount = l.CreditAmount
	l.CreditAmount = nil
	return l
}

// Exempt turns l into a zero-rated line with the given exemption, which may be
// empty.
func Exempt(l domain.Line, code, reason string) domain.Line {
	l.Tax = &domain.Tax{
		TaxType:          domain.TaxTypeIVA,
		TaxCountryRegion: "PT",
		TaxCode:          domain.TaxCodeExempt,
		TaxPercentage:    Dec("0"),
	}
	if code != "" {
		l.TaxExemptionCode = Str(code)
	}
	if reason != "" {
		l.TaxExemptionReason = Str(reason)
	}
	return l
}

// Totals declares the document totals that exactly match lines.
func Totals(lines ...domain.Line) domain.DocumentTotals {
	net, tax := decimal.Zero, decimal.Zero
	for _, l := range lines {
		amount, sign := decimal.Zero, decimal.NewFromInt(1)
		switch {
		case l.CreditAmount != nil:
			amount = *l.CreditAmount
		case l.DebitAmount != nil:
			amount, sign = *l.DebitAmount, decimal.NewFromInt(-1)
		}
		net = net.Add(amount.Mul(sign))
		if l.Tax != nil && l.Tax.TaxPercentage != nil {
			tax = tax.Add(amount.Mul(l.Tax.TaxPercentage.Shift(-2)).Mul(sign))
		}
	}
	net, tax = net.Abs().Round(2), tax.Abs().Round(2)
	return domain.DocumentTotals{NetTotal: net, TaxPayable: tax, GrossTotal: net.Add(tax)}
}

func header(number string, date domain.Date, entry domain.DateTime) domain.DocumentHeader {
	return domain.DocumentHeader{
		Number:          number,
		ATCUD:           "0",
		Date:            date,
		SystemEntryDate: entry,
		SourceID:        "admin",
		CustomerID:      Str(CustomerID),
	}
}

func status[S domain.StatusCode](code S, at domain.DateTime) domain.DocumentStatus[S] {
	return domain.DocumentStatus[S]{
		Status:        code,
		StatusDate:    at,
		SourceID:      "admin",
		SourceBilling: domain.SourceBillingProduced,
	}
}

func Invoice(number string, typ domain.InvoiceType, date domain.Date, entry domain.DateTime, lines ...domain.Line) domain.Invoice {
	inv := domain.Invoice{
		DocumentHeader: header(number, date, entry),
		DocumentStatus: status(domain.InvoiceStatusNormal, entry),
		InvoiceType:    typ,
	}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, domain.InvoiceLine{Line: l})
	}
	inv.Totals = Totals(lines...)
	return inv
}

func WorkDocument(number string, typ domain.WorkType, date domain.Date, entry domain.DateTime, lines ...domain.Line) domain.WorkDocument {
	doc := domain.WorkDocument{
		DocumentHeader: header(number, date, entry),
		DocumentStatus: status(domain.WorkStatusNormal, entry),
		WorkType:       typ,
	}
	for _, l := range lines {
		doc.Lines = append(doc.Lines, domain.WorkLine{Line: l})
	}
	doc.Totals = Totals(lines...)
	return doc
}

func StockMovement(number string, typ domain.MovementType, date domain.Date, entry domain.DateTime, lines ...domain.Line) domain.StockMovement {
	start := domain.DateTime{Time: entry.Add(time.Hour)}
	doc := domain.StockMovement{
		DocumentHeader:    header(number, date, entry),
		DocumentStatus:    status(domain.MovementStatusNormal, entry),
		MovementType:      typ,
		MovementStartTime: &start,
		Lines:             lines,
	}
	doc.Totals = Totals(lines...)
	return doc
}

// Payment settles one invoice in full by card.
func Payment(number string, date domain.Date, entry domain.DateTime, invoice domain.Invoice) domain.Payment {
	gross := invoice.Totals.GrossTotal
	p := domain.Payment{
		DocumentHeader: header(number, date, entry),
		DocumentStatus: status(domain.PaymentStatusNormal, entry),
		PaymentType:    domain.PaymentTypeOther,
		Lines: []domain.PaymentLine{{
			Line: domain.Line{
				LineNumber:   Int(1),
				CreditAmount: &gross,
			},
			SourceDocumentIDs: []domain.SourceDocumentID{{
				OriginatingON: invoice.Number,
				InvoiceDate:   invoice.Date,
			}},
		}},
	}
	p.Totals = domain.DocumentTotals{
		NetTotal:   gross,
		GrossTotal: gross,
		PaymentMethods: []domain.PaymentMethod{{
			PaymentMechanism: "CC",
			PaymentAmount:    gross,
			PaymentDate:      date,
		}},
	}
	return p
}

// AuditFile returns a signed, fully consistent file for fiscal year 2024 with
// one document in each table:
//
//	FT A/1  2 x 10.00 at 23%  net 20.00 tax 4.60 gross 24.60
//	RG R/1  settles FT A/1 by card
//	OR O/1  1 x 50.00 at 23%  gross 61.50
//	GR G/1  3 x 5.00 at 23%   gross 18.45
func AuditFile(t testing.TB) *domain.AuditFile {
	t.Helper()

	inv := Invoice("FT A/1", domain.InvoiceTypeInvoice, Day(time.March, 1), At(time.March, 1, 10),
		Line(1, ProductCode, "2", "10.00"))

	af := &domain.AuditFile{
		Header: domain.Header{
			AuditFileVersion:      "1.04_01",
			CompanyID:             "Lisboa 12345",
			TaxRegistrationNumber: TaxRegistrationNumber,
			CompanyName:           "Fixture Lda",
			FiscalYear:            2024,
			StartDate:             Day(time.January, 1),
			EndDate:               Day(time.December, 31),
			CurrencyCode:          "EUR",
			DateCreated:           domain.NewDate(2025, time.January, 10),
			TaxEntity:             "Global",
			ProductCompanyTaxID:   "999999990",
			SoftwareCertificate:   "0",
			ProductID:             "audit-validator/fixtures",
			ProductVersion:        "1.0",
		},
		MasterFiles: domain.MasterFiles{
			Customers: []domain.Customer{{
				CustomerID:    CustomerID,
				AccountID:     "211",
				CustomerTaxID: "123456789",
				CompanyName:   "Customer SA",
				BillingAddress: domain.Address{
					AddressDetail: "Rua A 1", City: "Lisboa", PostalCode: "1000-001", Country: "PT",
				},
			}},
			Suppliers: []domain.Supplier{{
				SupplierID:    SupplierID,
				AccountID:     "221",
				SupplierTaxID: "987654321",
				CompanyName:   "Supplier SA",
				BillingAddress: domain.Address{
					AddressDetail: "Rua B 2", City: "Porto", PostalCode: "4000-001", Country: "PT",
				},
			}},
			Products: []domain.Product{
				{ProductType: domain.ProductTypeGoods, ProductCode: ProductCode, ProductDescription: "Widget", ProductNumberCode: ProductCode},
				{ProductType: domain.ProductTypeService, ProductCode: ServiceCode, ProductDescription: "Installation", ProductNumberCode: ServiceCode},
			},
			TaxTable: []domain.TaxTableEntry{
				{TaxType: domain.TaxTypeIVA, TaxCountryRegion: "PT", TaxCode: domain.TaxCodeNormal, Description: "Normal", TaxPercentage: Dec("23")},
				{TaxType: domain.TaxTypeIVA, TaxCountryRegion: "PT", TaxCode: domain.TaxCodeReduced, Description: "Reduced", TaxPercentage: Dec("6")},
				{TaxType: domain.TaxTypeIVA, TaxCountryRegion: "PT", TaxCode: domain.TaxCodeExempt, Description: "Exempt", TaxPercentage: Dec("0")},
			},
		},
		SalesInvoices: &domain.SalesInvoices{
			Invoices: []domain.Invoice{inv},
		},
		Payments: &domain.Payments{
			Payments: []domain.Payment{Payment("RG R/1", Day(time.March, 5), At(time.March, 5, 11), inv)},
		},
		WorkingDocuments: &domain.WorkingDocuments{
			WorkDocuments: []domain.WorkDocument{
				WorkDocument("OR O/1", domain.WorkTypeBudget, Day(time.February, 20), At(time.February, 20, 9),
					Line(1, ProductCode, "1", "50.00")),
			},
		},
		MovementOfGoods: &domain.MovementOfGoods{
			StockMovements: []domain.StockMovement{
				StockMovement("GR G/1", domain.MovementTypeDelivery, Day(time.March, 2), At(time.March, 2, 8),
					Line(1, ProductCode, "3", "5.00")),
			},
		},
	}

	Seal(t, af)
	return af
}

// Seal recomputes the table control totals and signs every document. Call it
// after mutating a fixture so that only the mutation under test is reported.
func Seal(t testing.TB, af *domain.AuditFile) {
	t.Helper()
	SetTableTotals(af)
	Sign(t, af)
}

type signable struct {
	typ string
	hdr *domain.DocumentHeader
}

// Sign chains the documents of each table in slice order, per (type, series).
func Sign(t testing.TB, af *domain.AuditFile) {
	t.Helper()
	s := Signer(t)

	var tables [][]signable
	if si := af.SalesInvoices; si != nil {
		var docs []signable
		for i := range si.Invoices {
			docs = append(docs, signable{string(si.Invoices[i].InvoiceType), &si.Invoices[i].DocumentHeader})
		}
		tables = append(tables, docs)
	}
	if p := af.Payments; p != nil {
		var docs []signable
		for i := range p.Payments {
			docs = append(docs, signable{string(p.Payments[i].PaymentType), &p.Payments[i].DocumentHeader})
		}
		tables = append(tables, docs)
	}
	if w := af.WorkingDocuments; w != nil {
		var docs []signable
		for i := range w.WorkDocuments {
			docs = append(docs, signable{string(w.WorkDocuments[i].WorkType), &w.WorkDocuments[i].DocumentHeader})
		}
		tables = append(tables, docs)
	}
	if m := af.MovementOfGoods; m != nil {
		var docs []signable
		for i := range m.StockMovements {
			docs = append(docs, signable{string(m.StockMovements[i].MovementType), &m.StockMovements[i].DocumentHeader})
		}
		tables = append(tables, docs)
	}

	for _, docs := range tables {
		prev := make(map[string]string)
		for _, d := range docs {
			n, err := domain.ParseDocumentNumber(d.hdr.Number)
			if err != nil {
				continue
			}
			key := d.typ + "|" + n.SeriesKey()
			hash, err := s.Sign(d.hdr.Date, d.hdr.SystemEntryDate, d.hdr.Number, d.hdr.Totals.GrossTotal, prev[key])
			if err != nil {
				t.Fatalf("sign %s: %v", d.hdr.Number, err)
			}
			d.hdr.Hash = hash
			prev[key] = hash
		}
	}
}

// SetTableTotals declares the control totals each table actually adds up to.
func SetTableTotals(af *domain.AuditFile) {
	if si := af.SalesInvoices; si != nil {
		th := domain.TableHeader{NumberOfEntries: len(si.Invoices)}
		for _, inv := range si.Invoices {
			if inv.DocumentStatus.Status == domain.InvoiceStatusCancelled || inv.DocumentStatus.Status == domain.InvoiceStatusBilled {
				continue
			}
			for _, l := range inv.Lines {
				addLine(&th, l.Line)
			}
		}
		si.TableHeader = th
	}
	if p := af.Payments; p != nil {
		th := domain.TableHeader{NumberOfEntries: len(p.Payments)}
		for _, pay := range p.Payments {
			if pay.DocumentStatus.Status == domain.PaymentStatusCancelled {
				continue
			}
			for _, l := range pay.Lines {
				addLine(&th, l.Line)
			}
		}
		p.TableHeader = th
	}
	if w := af.WorkingDocuments; w != nil {
		th := domain.TableHeader{NumberOfEntries: len(w.WorkDocuments)}
		for _, doc := range w.WorkDocuments {
			if doc.DocumentStatus.Status == domain.WorkStatusCancelled || doc.DocumentStatus.Status == domain.WorkStatusBilled {
				continue
			}
			for _, l := range doc.Lines {
				addLine(&th, l.Line)
			}
		}
		w.TableHeader = th
	}
	if m := af.MovementOfGoods; m != nil {
		th := domain.TableHeader{NumberOfEntries: len(m.StockMovements)}
		lines, qty := 0, decimal.Zero
		for _, doc := range m.StockMovements {
			if doc.DocumentStatus.Status == domain.MovementStatusCancelled || doc.DocumentStatus.Status == domain.MovementStatusBilled {
				continue
			}
			for _, l := range doc.Lines {
				addLine(&th, l)
				lines++
				if l.Quantity != nil {
					qty = qty.Add(*l.Quantity)
				}
			}
		}
		m.TableHeader = th
		m.NumberOfMovementLines = lines
		m.TotalQuantityIssued = qty
	}
}

func addLine(th *domain.TableHeader, l domain.Line) {
	if l.CreditAmount != nil {
		th.TotalCredit = th.TotalCredit.Add(*l.CreditAmount)
	}
	if l.DebitAmount != nil {
		th.TotalDebit = th.TotalDebit.Add(*l.DebitAmount)
	}
}
