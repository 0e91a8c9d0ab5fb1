package domain

import "errors"

var (
	ErrStaleRevision    = errors.New("stale_revision")
	ErrReasonRequired   = errors.New("revision_reason_required")
	ErrAssessmentLocked = errors.New("assessment_locked")
)
