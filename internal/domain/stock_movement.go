package domain

// StockMovement is a goods-movement (transport) document. Its lines never
// carry a separate tax base.
type StockMovement struct {
	DocumentHeader
	DocumentStatus    DocumentStatus[MovementStatus] `json:"document_status"`
	MovementType      MovementType                   `json:"movement_type"`
	ATDocCodeID       string                         `json:"at_doc_code_id,omitempty"`
	EACCode           string                         `json:"eac_code,omitempty"`
	MovementComments  string                         `json:"movement_comments,omitempty"`
	ShipTo            *ShippingPoint                 `json:"ship_to,omitempty"`
	ShipFrom          *ShippingPoint                 `json:"ship_from,omitempty"`
	MovementEndTime   *DateTime                      `json:"movement_end_time,omitempty"`
	MovementStartTime *DateTime                      `json:"movement_start_time,omitempty"`
	Lines             []Line                         `json:"lines"`
}
