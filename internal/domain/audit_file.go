package domain

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/audit-validator/internal/report"
)

// AuditFile is the already-parsed tax audit export. Source documents are
// optional: a file may carry any subset of the four tables.
type AuditFile struct {
	Header           Header            `json:"header"`
	MasterFiles      MasterFiles       `json:"master_files"`
	SalesInvoices    *SalesInvoices    `json:"sales_invoices,omitempty"`
	Payments         *Payments         `json:"payments,omitempty"`
	WorkingDocuments *WorkingDocuments `json:"working_documents,omitempty"`
	MovementOfGoods  *MovementOfGoods  `json:"movement_of_goods,omitempty"`
}

type Header struct {
	AuditFileVersion      string `json:"audit_file_version"`
	CompanyID             string `json:"company_id"`
	TaxRegistrationNumber string `json:"tax_registration_number"`
	CompanyName           string `json:"company_name"`
	FiscalYear            int    `json:"fiscal_year"`
	StartDate             Date   `json:"start_date"`
	EndDate               Date   `json:"end_date"`
	CurrencyCode          string `json:"currency_code"`
	DateCreated           Date   `json:"date_created"`
	TaxEntity             string `json:"tax_entity"`
	ProductCompanyTaxID   string `json:"product_company_tax_id"`
	SoftwareCertificate   string `json:"software_certificate_number"`
	ProductID             string `json:"product_id"`
	ProductVersion        string `json:"product_version"`
}

type MasterFiles struct {
	Customers []Customer      `json:"customers"`
	Suppliers []Supplier      `json:"suppliers"`
	Products  []Product       `json:"products"`
	TaxTable  []TaxTableEntry `json:"tax_table"`
}

type Address struct {
	AddressDetail string `json:"address_detail"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Region        string `json:"region,omitempty"`
	Country       string `json:"country"`
}

type Customer struct {
	CustomerID     string  `json:"customer_id"`
	AccountID      string  `json:"account_id"`
	CustomerTaxID  string  `json:"customer_tax_id"`
	CompanyName    string  `json:"company_name"`
	BillingAddress Address `json:"billing_address"`
	SelfBilling    bool    `json:"self_billing_indicator"`
}

type Supplier struct {
	SupplierID     string  `json:"supplier_id"`
	AccountID      string  `json:"account_id"`
	SupplierTaxID  string  `json:"supplier_tax_id"`
	CompanyName    string  `json:"company_name"`
	BillingAddress Address `json:"billing_address"`
	SelfBilling    bool    `json:"self_billing_indicator"`
}

type Product struct {
	ProductType        ProductType `json:"product_type"`
	ProductCode        string      `json:"product_code"`
	ProductGroup       string      `json:"product_group,omitempty"`
	ProductDescription string      `json:"product_description"`
	ProductNumberCode  string      `json:"product_number_code"`
}

// TaxTableEntry carries either a percentage or a fixed amount, never both.
type TaxTableEntry struct {
	TaxType           TaxType          `json:"tax_type"`
	TaxCountryRegion  string           `json:"tax_country_region"`
	TaxCode           TaxCode          `json:"tax_code"`
	Description       string           `json:"description"`
	TaxExpirationDate *Date            `json:"tax_expiration_date,omitempty"`
	TaxPercentage     *decimal.Decimal `json:"tax_percentage,omitempty"`
	TaxAmount         *decimal.Decimal `json:"tax_amount,omitempty"`
}

// TableHeader holds the control totals every source-document table declares.
type TableHeader struct {
	NumberOfEntries int             `json:"number_of_entries"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
}

type SalesInvoices struct {
	TableHeader
	Invoices   []Invoice    `json:"invoices"`
	Recomputed *TableTotals `json:"recomputed,omitempty"`
	report.Notes
}

type Payments struct {
	TableHeader
	Payments   []Payment    `json:"payments"`
	Recomputed *TableTotals `json:"recomputed,omitempty"`
	report.Notes
}

type WorkingDocuments struct {
	TableHeader
	WorkDocuments []WorkDocument `json:"work_documents"`
	Recomputed    *TableTotals   `json:"recomputed,omitempty"`
	report.Notes
}

type MovementOfGoods struct {
	TableHeader
	NumberOfMovementLines int             `json:"number_of_movement_lines"`
	TotalQuantityIssued   decimal.Decimal `json:"total_quantity_issued"`
	StockMovements        []StockMovement `json:"stock_movements"`
	Recomputed            *TableTotals    `json:"recomputed,omitempty"`
	report.Notes
}
