// Package importlog records every plan import and dataset upload in the
// gateway_import_runs table and serves them back on /importRuns.
package importlog

import (
	"embed"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/infrastructure/persistence"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/presentation/controllers"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
)

//go:embed infrastructure/persistence/schema/importlog-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)
	app.RegisterServices(
		services.NewImportRunService(persistence.NewImportRunRepository()),
	)
	app.RegisterControllers(
		controllers.NewImportRunsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "importlog"
}
