package guardian

import (
	"github.com/nestbill/nestbill/internal/guardian/service"
	"go.uber.org/fx"
)

var Module = fx.Module("guardian.service",
	fx.Provide(service.NewService),
)
