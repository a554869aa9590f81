package billing

import (
	"github.com/gridsmith/meterbill/internal/billing/repository"
	"github.com/gridsmith/meterbill/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
