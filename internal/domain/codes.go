package domain

import (
	"fmt"
	"slices"
)

func parseCode[T ~string](kind, s string, valid []T) (T, error) {
	if slices.Contains(valid, T(s)) {
		return T(s), nil
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", kind, s, ErrUnknownCode)
}

func unmarshalCode[T ~string](dst *T, kind string, b []byte, valid []T) error {
	v, err := parseCode(kind, string(b), valid)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

type TaxType string

const (
	TaxTypeIVA TaxType = "IVA"
	TaxTypeIS  TaxType = "IS"
	TaxTypeNS  TaxType = "NS"
)

var taxTypes = []TaxType{TaxTypeIVA, TaxTypeIS, TaxTypeNS}

func ParseTaxType(s string) (TaxType, error)    { return parseCode("tax type", s, taxTypes) }
func (t TaxType) IsValid() bool                 { return slices.Contains(taxTypes, t) }
func (t *TaxType) UnmarshalText(b []byte) error { return unmarshalCode(t, "tax type", b, taxTypes) }

// TaxCode is open-ended for stamp duty (IS), where the taxpayer's own codes
// are allowed; IVA and NS codes are checked against the tax type by the
// validator.
type TaxCode string

const (
	TaxCodeReduced      TaxCode = "RED"
	TaxCodeIntermediate TaxCode = "INT"
	TaxCodeNormal       TaxCode = "NOR"
	TaxCodeExempt       TaxCode = "ISE"
	TaxCodeOther        TaxCode = "OUT"
	TaxCodeNotSubject   TaxCode = "NS"
)

var ivaTaxCodes = []TaxCode{TaxCodeReduced, TaxCodeIntermediate, TaxCodeNormal, TaxCodeExempt, TaxCodeOther}

func ParseTaxCode(s string) (TaxCode, error) {
	if s == "" || len(s) > 10 {
		return "", fmt.Errorf("tax code %q: %w", s, ErrUnknownCode)
	}
	return TaxCode(s), nil
}

func (c *TaxCode) UnmarshalText(b []byte) error {
	v, err := ParseTaxCode(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ValidFor reports whether the code may be used with the given tax type.
func (c TaxCode) ValidFor(t TaxType) bool {
	switch t {
	case TaxTypeIVA:
		return slices.Contains(ivaTaxCodes, c)
	case TaxTypeNS:
		return c == TaxCodeNotSubject
	case TaxTypeIS:
		return c != "" && len(c) <= 10
	default:
		return false
	}
}

type SourceBilling string

const (
	SourceBillingProduced   SourceBilling = "P"
	SourceBillingIntegrated SourceBilling = "I"
	SourceBillingManual     SourceBilling = "M"
)

var sourceBillings = []SourceBilling{SourceBillingProduced, SourceBillingIntegrated, SourceBillingManual}

func ParseSourceBilling(s string) (SourceBilling, error) {
	return parseCode("source billing", s, sourceBillings)
}
func (s SourceBilling) IsValid() bool { return slices.Contains(sourceBillings, s) }
func (s *SourceBilling) UnmarshalText(b []byte) error {
	return unmarshalCode(s, "source billing", b, sourceBillings)
}

type InvoiceType string

const (
	InvoiceTypeInvoice           InvoiceType = "FT"
	InvoiceTypeSimplified        InvoiceType = "FS"
	InvoiceTypeInvoiceReceipt    InvoiceType = "FR"
	InvoiceTypeDebitNote         InvoiceType = "ND"
	InvoiceTypeCreditNote        InvoiceType = "NC"
	InvoiceTypeCashSale          InvoiceType = "VD"
	InvoiceTypeTalonSale         InvoiceType = "TV"
	InvoiceTypeTalonReturned     InvoiceType = "TD"
	InvoiceTypeAssetDisposal     InvoiceType = "AA"
	InvoiceTypeAssetReturn       InvoiceType = "DA"
	InvoiceTypePremium           InvoiceType = "RP"
	InvoiceTypeReturnPremium     InvoiceType = "RE"
	InvoiceTypeCoinsurerShare    InvoiceType = "CS"
	InvoiceTypeLeaderCoinsurance InvoiceType = "LD"
	InvoiceTypeReinsurance       InvoiceType = "RA"
)

var invoiceTypes = []InvoiceType{
	InvoiceTypeInvoice, InvoiceTypeSimplified, InvoiceTypeInvoiceReceipt, InvoiceTypeDebitNote,
	InvoiceTypeCreditNote, InvoiceTypeCashSale, InvoiceTypeTalonSale, InvoiceTypeTalonReturned,
	InvoiceTypeAssetDisposal, InvoiceTypeAssetReturn, InvoiceTypePremium, InvoiceTypeReturnPremium,
	InvoiceTypeCoinsurerShare, InvoiceTypeLeaderCoinsurance, InvoiceTypeReinsurance,
}

func ParseInvoiceType(s string) (InvoiceType, error) {
	return parseCode("invoice type", s, invoiceTypes)
}
func (t InvoiceType) IsValid() bool { return slices.Contains(invoiceTypes, t) }
func (t *InvoiceType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "invoice type", b, invoiceTypes)
}

type WorkType string

const (
	WorkTypeConsultationTable WorkType = "CM"
	WorkTypeConsignmentCredit WorkType = "CC"
	WorkTypeConsignmentInv    WorkType = "FC"
	WorkTypeWorksheet         WorkType = "FO"
	WorkTypePurchaseOrder     WorkType = "NE"
	WorkTypeOther             WorkType = "OU"
	WorkTypeBudget            WorkType = "OR"
	WorkTypeProforma          WorkType = "PF"
	WorkTypeIssuedDocument    WorkType = "DC"
	WorkTypePremium           WorkType = "RP"
	WorkTypeReturnPremium     WorkType = "RE"
	WorkTypeCoinsurerShare    WorkType = "CS"
	WorkTypeLeaderCoinsurance WorkType = "LD"
	WorkTypeReinsurance       WorkType = "RA"
)

var workTypes = []WorkType{
	WorkTypeConsultationTable, WorkTypeConsignmentCredit, WorkTypeConsignmentInv, WorkTypeWorksheet,
	WorkTypePurchaseOrder, WorkTypeOther, WorkTypeBudget, WorkTypeProforma, WorkTypeIssuedDocument,
	WorkTypePremium, WorkTypeReturnPremium, WorkTypeCoinsurerShare, WorkTypeLeaderCoinsurance,
	WorkTypeReinsurance,
}

func ParseWorkType(s string) (WorkType, error) { return parseCode("work type", s, workTypes) }
func (t WorkType) IsValid() bool               { return slices.Contains(workTypes, t) }
func (t *WorkType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "work type", b, workTypes)
}

type MovementType string

const (
	MovementTypeDelivery    MovementType = "GR"
	MovementTypeTransport   MovementType = "GT"
	MovementTypeOwnAssets   MovementType = "GA"
	MovementTypeConsignment MovementType = "GC"
	MovementTypeReturn      MovementType = "GD"
)

var movementTypes = []MovementType{
	MovementTypeDelivery, MovementTypeTransport, MovementTypeOwnAssets,
	MovementTypeConsignment, MovementTypeReturn,
}

func ParseMovementType(s string) (MovementType, error) {
	return parseCode("movement type", s, movementTypes)
}
func (t MovementType) IsValid() bool { return slices.Contains(movementTypes, t) }
func (t *MovementType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "movement type", b, movementTypes)
}

type PaymentType string

const (
	PaymentTypeCashVAT PaymentType = "RC"
	PaymentTypeOther   PaymentType = "RG"
)

var paymentTypes = []PaymentType{PaymentTypeCashVAT, PaymentTypeOther}

func ParsePaymentType(s string) (PaymentType, error) {
	return parseCode("payment type", s, paymentTypes)
}
func (t PaymentType) IsValid() bool { return slices.Contains(paymentTypes, t) }
func (t *PaymentType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "payment type", b, paymentTypes)
}

type ProductType string

const (
	ProductTypeGoods    ProductType = "P"
	ProductTypeService  ProductType = "S"
	ProductTypeOther    ProductType = "O"
	ProductTypeExcise   ProductType = "E"
	ProductTypeTaxesFee ProductType = "I"
)

var productTypes = []ProductType{ProductTypeGoods, ProductTypeService, ProductTypeOther, ProductTypeExcise, ProductTypeTaxesFee}

func ParseProductType(s string) (ProductType, error) {
	return parseCode("product type", s, productTypes)
}
func (t ProductType) IsValid() bool { return slices.Contains(productTypes, t) }
func (t *ProductType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "product type", b, productTypes)
}

type WithholdingTaxType string

const (
	WithholdingTaxIRS WithholdingTaxType = "IRS"
	WithholdingTaxIRC WithholdingTaxType = "IRC"
	WithholdingTaxIS  WithholdingTaxType = "IS"
)

var withholdingTaxTypes = []WithholdingTaxType{WithholdingTaxIRS, WithholdingTaxIRC, WithholdingTaxIS}

func ParseWithholdingTaxType(s string) (WithholdingTaxType, error) {
	return parseCode("withholding tax type", s, withholdingTaxTypes)
}
func (t WithholdingTaxType) IsValid() bool { return slices.Contains(withholdingTaxTypes, t) }
func (t *WithholdingTaxType) UnmarshalText(b []byte) error {
	return unmarshalCode(t, "withholding tax type", b, withholdingTaxTypes)
}

// Status codes. Each document family accepts its own subset.
type InvoiceStatus string

const (
	InvoiceStatusNormal      InvoiceStatus = "N"
	InvoiceStatusSelfBilling InvoiceStatus = "S"
	InvoiceStatusCancelled   InvoiceStatus = "A"
	InvoiceStatusSummary     InvoiceStatus = "R"
	InvoiceStatusBilled      InvoiceStatus = "F"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceStatusNormal, InvoiceStatusSelfBilling, InvoiceStatusCancelled,
	InvoiceStatusSummary, InvoiceStatusBilled,
}

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	return parseCode("invoice status", s, invoiceStatuses)
}
func (s InvoiceStatus) IsValid() bool { return slices.Contains(invoiceStatuses, s) }
func (s *InvoiceStatus) UnmarshalText(b []byte) error {
	return unmarshalCode(s, "invoice status", b, invoiceStatuses)
}

type PaymentStatus string

const (
	PaymentStatusNormal    PaymentStatus = "N"
	PaymentStatusCancelled PaymentStatus = "A"
)

var paymentStatuses = []PaymentStatus{PaymentStatusNormal, PaymentStatusCancelled}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return parseCode("payment status", s, paymentStatuses)
}
func (s PaymentStatus) IsValid() bool { return slices.Contains(paymentStatuses, s) }
func (s *PaymentStatus) UnmarshalText(b []byte) error {
	return unmarshalCode(s, "payment status", b, paymentStatuses)
}

type WorkStatus string

const (
	WorkStatusNormal    WorkStatus = "N"
	WorkStatusCancelled WorkStatus = "A"
	WorkStatusBilled    WorkStatus = "F"
)

var workStatuses = []WorkStatus{WorkStatusNormal, WorkStatusCancelled, WorkStatusBilled}

func ParseWorkStatus(s string) (WorkStatus, error) { return parseCode("work status", s, workStatuses) }
func (s WorkStatus) IsValid() bool                 { return slices.Contains(workStatuses, s) }
func (s *WorkStatus) UnmarshalText(b []byte) error {
	return unmarshalCode(s, "work status", b, workStatuses)
}

type MovementStatus string

const (
	MovementStatusNormal    MovementStatus = "N"
	MovementStatusTransport MovementStatus = "T"
	MovementStatusCancelled MovementStatus = "A"
	MovementStatusBilled    MovementStatus = "F"
	MovementStatusReceived  MovementStatus = "R"
)

var movementStatuses = []MovementStatus{
	MovementStatusNormal, MovementStatusTransport, MovementStatusCancelled,
	MovementStatusBilled, MovementStatusReceived,
}

func ParseMovementStatus(s string) (MovementStatus, error) {
	return parseCode("movement status", s, movementStatuses)
}
func (s MovementStatus) IsValid() bool { return slices.Contains(movementStatuses, s) }
func (s *MovementStatus) UnmarshalText(b []byte) error {
	return unmarshalCode(s, "movement status", b, movementStatuses)
}

// cancelled is the status code shared by every family for voided documents.
const cancelled = "A"
