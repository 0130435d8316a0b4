// Package plan imports exported plan files into the planning database.
package plan

import (
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/infrastructure/upstream"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/presentation/controllers"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
)

type ModuleOptions struct {
	Upstream        upstream.Executor
	Import          services.PlanImportOptions
	MaxUploadMemory int64
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{opts: opts}
}

type Module struct {
	opts *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewPlanImportService(upstream.NewPlanGateway(m.opts.Upstream), m.opts.Import),
	)
	app.RegisterControllers(
		controllers.NewPlanController(app, m.opts.MaxUploadMemory),
	)
	return nil
}

func (m *Module) Name() string {
	return "plan"
}
