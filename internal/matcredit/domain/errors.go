package domain

import "errors"

var (
	ErrInvalidCompany    = errors.New("invalid_company")
	ErrInvalidAmount     = errors.New("invalid_credit_amount")
	ErrEntryExists       = errors.New("mat_credit_entry_exists")
	ErrInsufficientDraws = errors.New("mat_credit_insufficient_balance")
	ErrOverdraw          = errors.New("mat_credit_overdraw")
)
