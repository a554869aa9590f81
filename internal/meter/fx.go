package meter

import (
	"github.com/gridsmith/meterbill/internal/meter/repository"
	"github.com/gridsmith/meterbill/internal/meter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
