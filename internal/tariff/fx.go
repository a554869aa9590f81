package tariff

import (
	"github.com/gridsmith/meterbill/internal/tariff/repository"
	"github.com/gridsmith/meterbill/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
