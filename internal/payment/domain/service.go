package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Record persists a payment, allocates it against the schedule, and
	// recomputes shortfall and 234C for the affected and later quarters.
	Record(ctx context.Context, req RecordRequest) (*RecordResponse, error)

	List(ctx context.Context, assessmentID string) ([]Payment, error)

	// Reallocate re-runs allocation over the current schedule, e.g. after
	// a schedule regeneration or from the nightly sweep.
	Reallocate(ctx context.Context, tx *gorm.DB, assessmentID snowflake.ID) error
}
