package domain

import "github.com/shopspring/decimal"

// Payment is a receipt issued against one or more sales documents.
type Payment struct {
	DocumentHeader
	DocumentStatus DocumentStatus[PaymentStatus] `json:"document_status"`
	PaymentType    PaymentType                   `json:"payment_type"`
	Description    string                        `json:"description,omitempty"`
	SystemID       string                        `json:"system_id,omitempty"`
	Lines          []PaymentLine                 `json:"lines"`
	WithholdingTax []WithholdingTax              `json:"withholding_tax,omitempty"`
}

type SourceDocumentID struct {
	OriginatingON string `json:"originating_on"`
	InvoiceDate   Date   `json:"invoice_date"`
	Description   string `json:"description,omitempty"`
}

type PaymentLine struct {
	Line
	SourceDocumentIDs []SourceDocumentID `json:"source_document_ids"`
	TaxBase           *decimal.Decimal   `json:"tax_base,omitempty"`
}
