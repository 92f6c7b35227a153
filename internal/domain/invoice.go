package domain

import "github.com/shopspring/decimal"

type Invoice struct {
	DocumentHeader
	DocumentStatus    DocumentStatus[InvoiceStatus] `json:"document_status"`
	InvoiceType       InvoiceType                   `json:"invoice_type"`
	SelfBilling       bool                          `json:"self_billing_indicator"`
	CashVATScheme     bool                          `json:"cash_vat_scheme_indicator"`
	ThirdParties      bool                          `json:"third_parties_billing_indicator"`
	EACCode           string                        `json:"eac_code,omitempty"`
	ShipTo            *ShippingPoint                `json:"ship_to,omitempty"`
	ShipFrom          *ShippingPoint                `json:"ship_from,omitempty"`
	MovementEndTime   *DateTime                     `json:"movement_end_time,omitempty"`
	MovementStartTime *DateTime                     `json:"movement_start_time,omitempty"`
	Lines             []InvoiceLine                 `json:"lines"`
	WithholdingTax    []WithholdingTax              `json:"withholding_tax,omitempty"`
}

// InvoiceLine may carry an explicit TaxBase, used instead of the line amount
// when computing the line tax.
type InvoiceLine struct {
	Line
	TaxBase      *decimal.Decimal `json:"tax_base,omitempty"`
	TaxPointDate *Date            `json:"tax_point_date,omitempty"`
	References   []Reference      `json:"references,omitempty"`
}
