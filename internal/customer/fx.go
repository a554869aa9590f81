package customer

import (
	"github.com/gridsmith/meterbill/internal/customer/repository"
	"github.com/gridsmith/meterbill/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
