package domain

import (
	"context"

	"github.com/smallbiznis/taxsuite/internal/fiscal"
)

type Repository interface {
	// FindPack loads the active pack for a year, or a pinned version when
	// version is non-nil. Returns nil when no pack covers the year.
	FindPack(ctx context.Context, fy fiscal.Year, version *int) (*Pack, error)
	ListPacks(ctx context.Context, fy fiscal.Year) ([]RulePack, error)
}
