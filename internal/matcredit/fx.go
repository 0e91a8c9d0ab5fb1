package matcredit

import (
	"github.com/smallbiznis/taxsuite/internal/matcredit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("matcredit.service",
	fx.Provide(service.NewService),
)
