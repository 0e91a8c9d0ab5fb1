package domain

import "errors"

var (
	ErrNotFound       = errors.New("rule_pack_not_found")
	ErrInvalidRegime  = errors.New("invalid_regime")
	ErrInvalidVersion = errors.New("invalid_rule_pack_version")
	ErrMissingRate    = errors.New("rule_pack_missing_regime_rate")
	ErrNegativeIncome = errors.New("invalid_income")
)
