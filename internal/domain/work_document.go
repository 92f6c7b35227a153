package domain

import "github.com/shopspring/decimal"

// WorkDocument is a draft or conference document (quotes, orders, proformas).
type WorkDocument struct {
	DocumentHeader
	DocumentStatus DocumentStatus[WorkStatus] `json:"document_status"`
	WorkType       WorkType                   `json:"work_type"`
	EACCode        string                     `json:"eac_code,omitempty"`
	Lines          []WorkLine                 `json:"lines"`
}

type WorkLine struct {
	Line
	TaxBase      *decimal.Decimal `json:"tax_base,omitempty"`
	TaxPointDate *Date            `json:"tax_point_date,omitempty"`
	References   []Reference      `json:"references,omitempty"`
}
