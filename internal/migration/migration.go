package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	journaldomain "github.com/smallbiznis/taxsuite/internal/journal/domain"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	revisiondomain "github.com/smallbiznis/taxsuite/internal/revision/domain"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations so the service is
// usable out of the box on postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the models. Used for the sqlite
// driver, where the embedded postgres migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&rulepackdomain.RulePack{},
		&rulepackdomain.RegimeRate{},
		&rulepackdomain.SurchargeTier{},
		&assessmentdomain.Assessment{},
		&assessmentdomain.ScheduleRow{},
		&paymentdomain.Payment{},
		&revisiondomain.Revision{},
		&matdomain.LedgerEntry{},
		&matdomain.Utilization{},
		&journaldomain.JournalEntry{},
	)
}
