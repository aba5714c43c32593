package invoice

import (
	"github.com/smallbiznis/meterbill/internal/invoice/render"
	"github.com/smallbiznis/meterbill/internal/invoice/repository"
	"github.com/smallbiznis/meterbill/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(render.NewPDF),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
