package validate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/domain"
)

// family adapts one source-document table to the shared pipeline.
type family[D any] interface {
	table() string
	header(d *D) *domain.DocumentHeader
	docType(d *D) (code string, valid bool)
	typeField() string
	status(d *D) statusView
	lines(d *D) []lineView
	// excluded reports whether documents in the given status stay out of the
	// table control totals.
	excluded(status string) bool
	lineRules() lineRules
	party(c *docCheck, d *D)
	extras(c *docCheck, d *D)
}

type statusView struct {
	code          string
	valid         bool
	date          domain.DateTime
	reason        *string
	sourceID      string
	sourceBilling domain.SourceBilling
	cancelled     bool
}

func viewStatus[S domain.StatusCode](s domain.DocumentStatus[S]) statusView {
	return statusView{
		code:          s.Code(),
		valid:         s.Status.IsValid(),
		date:          s.StatusDate,
		reason:        s.Reason,
		sourceID:      s.SourceID,
		sourceBilling: s.SourceBilling,
		cancelled:     s.Cancelled(),
	}
}

type lineView struct {
	*domain.Line
	taxBase *decimal.Decimal
}

type lineRules struct {
	// priced lines carry quantity, unit price and a product.
	priced      bool
	taxRequired bool
	// quantities counts line quantities into TotalQuantityIssued.
	quantities bool
}

var (
	invoiceExcluded  = []string{string(domain.InvoiceStatusCancelled), string(domain.InvoiceStatusBilled)}
	paymentExcluded  = []string{string(domain.PaymentStatusCancelled)}
	workExcluded     = []string{string(domain.WorkStatusCancelled), string(domain.WorkStatusBilled)}
	movementExcluded = []string{string(domain.MovementStatusCancelled), string(domain.MovementStatusBilled)}
)

type invoiceFamily struct{}

func (invoiceFamily) table() string                                   { return domain.TableSalesInvoices }
func (invoiceFamily) header(d *domain.Invoice) *domain.DocumentHeader { return &d.DocumentHeader }
func (invoiceFamily) typeField() string                               { return "InvoiceType" }
func (invoiceFamily) status(d *domain.Invoice) statusView             { return viewStatus(d.DocumentStatus) }
func (invoiceFamily) excluded(s string) bool                          { return slices.Contains(invoiceExcluded, s) }
func (invoiceFamily) lineRules() lineRules                            { return lineRules{priced: true, taxRequired: true} }

func (invoiceFamily) docType(d *domain.Invoice) (string, bool) {
	return string(d.InvoiceType), d.InvoiceType.IsValid()
}

func (invoiceFamily) lines(d *domain.Invoice) []lineView {
	out := make([]lineView, len(d.Lines))
	for i := range d.Lines {
		out[i] = lineView{Line: &d.Lines[i].Line, taxBase: d.Lines[i].TaxBase}
	}
	return out
}

type paymentFamily struct{}

func (paymentFamily) table() string                                   { return domain.TablePayments }
func (paymentFamily) header(d *domain.Payment) *domain.DocumentHeader { return &d.DocumentHeader }
func (paymentFamily) typeField() string                               { return "PaymentType" }
func (paymentFamily) status(d *domain.Payment) statusView             { return viewStatus(d.DocumentStatus) }
func (paymentFamily) excluded(s string) bool                          { return slices.Contains(paymentExcluded, s) }
func (paymentFamily) lineRules() lineRules                            { return lineRules{} }

func (paymentFamily) docType(d *domain.Payment) (string, bool) {
	return string(d.PaymentType), d.PaymentType.IsValid()
}

func (paymentFamily) lines(d *domain.Payment) []lineView {
	out := make([]lineView, len(d.Lines))
	for i := range d.Lines {
		out[i] = lineView{Line: &d.Lines[i].Line, taxBase: d.Lines[i].TaxBase}
	}
	return out
}

type workFamily struct{}

func (workFamily) table() string                                        { return domain.TableWorkingDocuments }
func (workFamily) header(d *domain.WorkDocument) *domain.DocumentHeader { return &d.DocumentHeader }
func (workFamily) typeField() string                                    { return "WorkType" }
func (workFamily) status(d *domain.WorkDocument) statusView             { return viewStatus(d.DocumentStatus) }
func (workFamily) excluded(s string) bool                               { return slices.Contains(workExcluded, s) }
func (workFamily) lineRules() lineRules                                 { return lineRules{priced: true, taxRequired: true} }

func (workFamily) docType(d *domain.WorkDocument) (string, bool) {
	return string(d.WorkType), d.WorkType.IsValid()
}

func (workFamily) lines(d *domain.WorkDocument) []lineView {
	out := make([]lineView, len(d.Lines))
	for i := range d.Lines {
		out[i] = lineView{Line: &d.Lines[i].Line, taxBase: d.Lines[i].TaxBase}
	}
	return out
}

type movementFamily struct{}

func (movementFamily) table() string { return domain.TableMovementOfGoods }
func (movementFamily) header(d *domain.StockMovement) *domain.DocumentHeader {
	return &d.DocumentHeader
}
func (movementFamily) typeField() string                         { return "MovementType" }
func (movementFamily) status(d *domain.StockMovement) statusView { return viewStatus(d.DocumentStatus) }
func (movementFamily) excluded(s string) bool                    { return slices.Contains(movementExcluded, s) }
func (movementFamily) lineRules() lineRules                      { return lineRules{priced: true, quantities: true} }

func (movementFamily) docType(d *domain.StockMovement) (string, bool) {
	return string(d.MovementType), d.MovementType.IsValid()
}

func (movementFamily) lines(d *domain.StockMovement) []lineView {
	out := make([]lineView, len(d.Lines))
	for i := range d.Lines {
		out[i] = lineView{Line: &d.Lines[i]}
	}
	return out
}
