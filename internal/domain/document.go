package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/report"
)

// DocumentHeader is the part of the document shape shared by the four source
// document families.
type DocumentHeader struct {
	Number          string            `json:"number"`
	ATCUD           string            `json:"atcud"`
	Hash            string            `json:"hash"`
	HashControl     string            `json:"hash_control"`
	Period          *int              `json:"period,omitempty"`
	Date            Date              `json:"date"`
	SystemEntryDate DateTime          `json:"system_entry_date"`
	SourceID        string            `json:"source_id"`
	CustomerID      *string           `json:"customer_id,omitempty"`
	SupplierID      *string           `json:"supplier_id,omitempty"`
	Totals          DocumentTotals    `json:"document_totals"`
	Recomputed      *RecomputedTotals `json:"recomputed,omitempty"`
	report.Notes
}

type StatusCode interface {
	~string
	IsValid() bool
}

type DocumentStatus[S StatusCode] struct {
	Status        S             `json:"status"`
	StatusDate    DateTime      `json:"status_date"`
	Reason        *string       `json:"reason,omitempty"`
	SourceID      string        `json:"source_id"`
	SourceBilling SourceBilling `json:"source_billing"`
}

func (s DocumentStatus[S]) Code() string { return string(s.Status) }

func (s DocumentStatus[S]) Cancelled() bool { return string(s.Status) == cancelled }

type DocumentTotals struct {
	TaxPayable     decimal.Decimal `json:"tax_payable"`
	NetTotal       decimal.Decimal `json:"net_total"`
	GrossTotal     decimal.Decimal `json:"gross_total"`
	Currency       *Currency       `json:"currency,omitempty"`
	Settlement     []Settlement    `json:"settlement,omitempty"`
	PaymentMethods []PaymentMethod `json:"payment,omitempty"`
}

type Currency struct {
	CurrencyCode   string           `json:"currency_code"`
	CurrencyAmount *decimal.Decimal `json:"currency_amount,omitempty"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate,omitempty"`
}

type Settlement struct {
	SettlementDiscount string           `json:"settlement_discount,omitempty"`
	SettlementAmount   *decimal.Decimal `json:"settlement_amount,omitempty"`
	SettlementDate     *Date            `json:"settlement_date,omitempty"`
	PaymentTerms       string           `json:"payment_terms,omitempty"`
}

type PaymentMethod struct {
	PaymentMechanism string          `json:"payment_mechanism"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	PaymentDate      Date            `json:"payment_date"`
}

type WithholdingTax struct {
	WithholdingTaxType        WithholdingTaxType `json:"withholding_tax_type"`
	WithholdingTaxDescription string             `json:"withholding_tax_description,omitempty"`
	WithholdingTaxAmount      decimal.Decimal    `json:"withholding_tax_amount"`
}

type ShippingPoint struct {
	DeliveryID   []string `json:"delivery_id,omitempty"`
	DeliveryDate *Date    `json:"delivery_date,omitempty"`
	WarehouseID  []string `json:"warehouse_id,omitempty"`
	LocationID   []string `json:"location_id,omitempty"`
	Address      *Address `json:"address,omitempty"`
}

type Tax struct {
	TaxType          TaxType          `json:"tax_type"`
	TaxCountryRegion string           `json:"tax_country_region"`
	TaxCode          TaxCode          `json:"tax_code"`
	TaxPercentage    *decimal.Decimal `json:"tax_percentage,omitempty"`
	TaxAmount        *decimal.Decimal `json:"tax_amount,omitempty"`
}

type OrderReference struct {
	OriginatingON string `json:"originating_on,omitempty"`
	OrderDate     *Date  `json:"order_date,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Line is the line shape shared by the four families. At most one of
// DebitAmount and CreditAmount may be present.
type Line struct {
	LineNumber         *int             `json:"line_number,omitempty"`
	OrderReferences    []OrderReference `json:"order_references,omitempty"`
	ProductCode        string           `json:"product_code,omitempty"`
	ProductDescription string           `json:"product_description,omitempty"`
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	UnitOfMeasure      string           `json:"unit_of_measure,omitempty"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
	Description        string           `json:"description,omitempty"`
	DebitAmount        *decimal.Decimal `json:"debit_amount,omitempty"`
	CreditAmount       *decimal.Decimal `json:"credit_amount,omitempty"`
	Tax                *Tax             `json:"tax,omitempty"`
	TaxExemptionReason *string          `json:"tax_exemption_reason,omitempty"`
	TaxExemptionCode   *string          `json:"tax_exemption_code,omitempty"`
	SettlementAmount   *decimal.Decimal `json:"settlement_amount,omitempty"`
	report.Notes
}

// RecomputedTotals records what the validator derived for one document.
// Lines is keyed by the 1-based position of the line in the document, so
// missing or repeated line numbers cannot hide a line.
type RecomputedTotals struct {
	NetTotal          decimal.Decimal         `json:"net_total"`
	TaxPayable        decimal.Decimal         `json:"tax_payable"`
	GrossTotal        decimal.Decimal         `json:"gross_total"`
	GrossFromCurrency *decimal.Decimal        `json:"gross_from_currency,omitempty"`
	Lines             map[int]decimal.Decimal `json:"lines"`
}

func NewRecomputedTotals() *RecomputedTotals {
	return &RecomputedTotals{Lines: make(map[int]decimal.Decimal)}
}

// TableTotals records what the validator derived for a whole table.
// TotalLines and TotalQuantityIssued are only meaningful for goods movement.
type TableTotals struct {
	NumberOfEntries     int             `json:"number_of_entries"`
	TotalDebit          decimal.Decimal `json:"total_debit"`
	TotalCredit         decimal.Decimal `json:"total_credit"`
	TotalLines          int             `json:"total_lines"`
	TotalQuantityIssued decimal.Decimal `json:"total_quantity_issued"`
}

// DocumentNumber is a parsed "<code> <series>/<number>" identifier.
type DocumentNumber struct {
	Code   string
	Series string
	Number int
}

// SeriesKey names the signature chain the document belongs to.
func (n DocumentNumber) SeriesKey() string {
	return n.Code + " " + n.Series
}

func (n DocumentNumber) String() string {
	return fmt.Sprintf("%s %s/%d", n.Code, n.Series, n.Number)
}

func ParseDocumentNumber(s string) (DocumentNumber, error) {
	code, rest, ok := strings.Cut(s, " ")
	if !ok || code == "" {
		return DocumentNumber{}, fmt.Errorf("ParseDocumentNumber %q: missing code: %w", s, ErrInvalidDocumentNumber)
	}
	slash := strings.LastIndex(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return DocumentNumber{}, fmt.Errorf("ParseDocumentNumber %q: missing series: %w", s, ErrInvalidDocumentNumber)
	}
	series := rest[:slash]
	if strings.ContainsAny(series, " ") {
		return DocumentNumber{}, fmt.Errorf("ParseDocumentNumber %q: series contains spaces: %w", s, ErrInvalidDocumentNumber)
	}
	n, err := strconv.Atoi(rest[slash+1:])
	if err != nil || n < 1 {
		return DocumentNumber{}, fmt.Errorf("ParseDocumentNumber %q: bad sequence number: %w", s, ErrInvalidDocumentNumber)
	}
	return DocumentNumber{Code: code, Series: series, Number: n}, nil
}
