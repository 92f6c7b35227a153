package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnknownCode           = errors.New("unknown code")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidDocumentNumber = errors.New("invalid document number")
	ErrInvalidAuditFile      = errors.New("invalid audit file")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrForbidden             = errors.New("forbidden")
)
