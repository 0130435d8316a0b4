// Package health serves the liveness and version endpoints.
package health

import (
	"time"

	"github.com/NASA-AMMOS/aerie-gateway/modules/health/presentation/controllers"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
)

type ModuleOptions struct {
	Version   string
	StartedAt time.Time
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{opts: opts}
}

type Module struct {
	opts *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	startedAt := m.opts.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	app.RegisterControllers(controllers.NewHealthController(m.opts.Version, startedAt))
	return nil
}

func (m *Module) Name() string {
	return "health"
}
