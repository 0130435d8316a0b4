// Package dataset uploads external profile datasets for a plan.
package dataset

import (
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/infrastructure/upstream"
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/presentation/controllers"
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
)

type ModuleOptions struct {
	Upstream        upstream.Executor
	Upload          services.DatasetUploadOptions
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
		services.NewDatasetUploadService(upstream.NewDatasetGateway(m.opts.Upstream), m.opts.Upload),
	)
	app.RegisterControllers(
		controllers.NewDatasetController(app, m.opts.MaxUploadMemory),
	)
	return nil
}

func (m *Module) Name() string {
	return "dataset"
}
