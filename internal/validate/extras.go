package validate

import (
	"slices"
	"time"

	"github.com/josh-kwaku/audit-validator/internal/domain"
)

var (
	// Legacy invoice types could not be issued after these dates.
	invoiceTypeCutoff = domain.NewDate(2012, time.December, 31)
	workTypeCutoff    = domain.NewDate(2017, time.June, 30)

	outdatedInvoiceTypes = []domain.InvoiceType{
		domain.InvoiceTypeCashSale, domain.InvoiceTypeTalonSale, domain.InvoiceTypeTalonReturned,
		domain.InvoiceTypeAssetDisposal, domain.InvoiceTypeAssetReturn,
	}
	selfBillingTypes = []domain.InvoiceType{
		domain.InvoiceTypeInvoice, domain.InvoiceTypeSimplified, domain.InvoiceTypeInvoiceReceipt,
		domain.InvoiceTypeDebitNote, domain.InvoiceTypeCreditNote,
	}
)

func (invoiceFamily) party(c *docCheck, _ *domain.Invoice) { c.requireCustomer() }

func (invoiceFamily) extras(c *docCheck, d *domain.Invoice) {
	if slices.Contains(outdatedInvoiceTypes, d.InvoiceType) && c.hdr.Date.After(invoiceTypeCutoff.Time) {
		c.errorf("InvoiceType", "document type %s may not be issued after %s", d.InvoiceType, invoiceTypeCutoff)
	}
	if d.DocumentStatus.Status == domain.InvoiceStatusSelfBilling && !slices.Contains(selfBillingTypes, d.InvoiceType) {
		c.errorf("Status", "self-billing status is not allowed on document type %s", d.InvoiceType)
	}
	if d.InvoiceType == domain.InvoiceTypeCreditNote {
		for i := range d.Lines {
			if len(d.Lines[i].References) == 0 {
				c.lineErrorf(&d.Lines[i].Line, "References", "credit note line does not reference the corrected document")
			}
		}
	}
	c.movementTimes(d.MovementStartTime, d.MovementEndTime, false)
	c.paymentMethods(d.WithholdingTax)
}

func (paymentFamily) party(c *docCheck, _ *domain.Payment) { c.requireCustomer() }

func (paymentFamily) extras(c *docCheck, d *domain.Payment) {
	if len(d.Totals.PaymentMethods) == 0 {
		c.errorf("PaymentMethod", "payment has no payment method")
	}
	for i := range d.Lines {
		l := &d.Lines[i]
		if len(l.SourceDocumentIDs) == 0 {
			c.lineErrorf(&l.Line, "SourceDocumentID", "payment line does not reference a source document")
		}
		if d.PaymentType == domain.PaymentTypeCashVAT && l.Tax == nil {
			c.lineErrorf(&l.Line, "Tax", "cash VAT receipt line has no tax")
		}
	}
	c.paymentMethods(d.WithholdingTax)
}

func (workFamily) party(c *docCheck, _ *domain.WorkDocument) { c.requireCustomer() }

func (workFamily) extras(c *docCheck, d *domain.WorkDocument) {
	if d.WorkType == domain.WorkTypeIssuedDocument && c.hdr.Date.After(workTypeCutoff.Time) {
		c.errorf("WorkType", "document type %s may not be issued after %s", d.WorkType, workTypeCutoff)
	}
}

// party enforces that a movement names exactly one counterpart. Returns go to
// a supplier, deliveries and consignments to a customer, and movements of own
// assets may name neither.
func (movementFamily) party(c *docCheck, d *domain.StockMovement) {
	customer := c.hdr.CustomerID != nil && *c.hdr.CustomerID != ""
	supplier := c.hdr.SupplierID != nil && *c.hdr.SupplierID != ""

	switch {
	case customer && supplier:
		c.errorf("CustomerID", "movement names both a customer and a supplier")
	case d.MovementType == domain.MovementTypeReturn && !supplier:
		c.errorf("SupplierID", "return movement requires a supplier")
	case (d.MovementType == domain.MovementTypeDelivery || d.MovementType == domain.MovementTypeConsignment) && !customer:
		c.errorf("CustomerID", "movement type %s requires a customer", d.MovementType)
	case d.MovementType != domain.MovementTypeOwnAssets && !customer && !supplier:
		c.errorf("CustomerID", "movement names neither a customer nor a supplier")
	}

	if customer && !c.run.master.CustomerExists(*c.hdr.CustomerID) {
		c.errorf("CustomerID", "customer %q not found in master data", *c.hdr.CustomerID)
	}
	if supplier && !c.run.master.SupplierExists(*c.hdr.SupplierID) {
		c.errorf("SupplierID", "supplier %q not found in master data", *c.hdr.SupplierID)
	}
}

func (movementFamily) extras(c *docCheck, d *domain.StockMovement) {
	c.movementTimes(d.MovementStartTime, d.MovementEndTime, true)
	for i := range d.Lines {
		l := &d.Lines[i]
		if p, ok := c.run.master.Product(l.ProductCode); ok && p.ProductType == domain.ProductTypeService {
			c.lineWarnf(l, "ProductCode", "service product %q on a goods movement", l.ProductCode)
		}
	}
}
