package domain

import "errors"

var (
	ErrInvalidAmount  = errors.New("invalid_payment_amount")
	ErrInvalidQuarter = errors.New("invalid_quarter")
	ErrInvalidDate    = errors.New("invalid_payment_date")
	ErrNotFound       = errors.New("payment_not_found")
	ErrPosted         = errors.New("payment_posted")
)
