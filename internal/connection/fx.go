package connection

import (
	"github.com/gridsmith/meterbill/internal/connection/repository"
	"github.com/gridsmith/meterbill/internal/connection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("connection.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
