package child

import (
	"github.com/nestbill/nestbill/internal/child/service"
	"go.uber.org/fx"
)

var Module = fx.Module("child.service",
	fx.Provide(service.NewService),
)
