package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/config"
	"github.com/smallbiznis/taxsuite/internal/migration"
	"github.com/smallbiznis/taxsuite/internal/scheduler"
	"github.com/smallbiznis/taxsuite/internal/server"
	"github.com/smallbiznis/taxsuite/pkg/db"
	"github.com/smallbiznis/taxsuite/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
