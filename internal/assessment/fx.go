package assessment

import (
	"github.com/smallbiznis/taxsuite/internal/assessment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assessment.service",
	fx.Provide(
		service.NewService,
	),
)
