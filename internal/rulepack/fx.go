package rulepack

import (
	"github.com/smallbiznis/taxsuite/internal/rulepack/repository"
	"github.com/smallbiznis/taxsuite/internal/rulepack/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rulepack.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
