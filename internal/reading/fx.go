package reading

import (
	"github.com/gridsmith/meterbill/internal/reading/repository"
	"github.com/gridsmith/meterbill/internal/reading/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reading.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
