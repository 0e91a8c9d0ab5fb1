package domain

import "errors"

var (
	ErrInvalidCompany    = errors.New("invalid_company")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("assessment_not_found")
	ErrAlreadyExists     = errors.New("assessment_exists")
	ErrFinalized         = errors.New("assessment_finalized")
	ErrNotActive         = errors.New("assessment_not_active")
	ErrNegativeCredit    = errors.New("invalid_credit_amount")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrScheduleInvariant = errors.New("schedule_invariant_violated")
)
