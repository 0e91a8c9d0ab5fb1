package migration

import (
	"strings"

	"github.com/smallbiznis/taxsuite/internal/config"
	"github.com/smallbiznis/taxsuite/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "sqlite") {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.SeedRulePacks {
			return seed.EnsureDefaultRulePacks(conn)
		}
		return nil
	}),
)
