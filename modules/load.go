package modules

import (
	"context"
	"time"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset"
	datasetservices "github.com/NASA-AMMOS/aerie-gateway/modules/dataset/services"
	"github.com/NASA-AMMOS/aerie-gateway/modules/health"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan"
	plandomain "github.com/NASA-AMMOS/aerie-gateway/modules/plan/domain"
	planservices "github.com/NASA-AMMOS/aerie-gateway/modules/plan/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/configuration"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/fileparser"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
)

// Executor runs named GraphQL operations; *hasura.Client in production.
type Executor interface {
	Execute(ctx context.Context, op hasura.Operation, vars any, out any) error
}

// PlanImportOptions maps the import policy settings onto the plan service.
func PlanImportOptions(conf *configuration.Configuration) (planservices.PlanImportOptions, error) {
	anchors, err := plandomain.ParseAnchorPolicy(conf.Import.AnchorPolicy)
	if err != nil {
		return planservices.PlanImportOptions{}, err
	}
	simulation, err := plandomain.ParseSimulationPolicy(conf.Import.SimulationPolicy)
	if err != nil {
		return planservices.PlanImportOptions{}, err
	}
	return planservices.PlanImportOptions{AnchorPolicy: anchors, SimulationPolicy: simulation}, nil
}

// DatasetUploadOptions maps the dataset settings onto the upload service.
func DatasetUploadOptions(conf *configuration.Configuration) datasetservices.DatasetUploadOptions {
	var delimiter rune
	if conf.Dataset.CSVDelimiter != "" {
		delimiter = conf.Dataset.Delimiter()
	}
	return datasetservices.DatasetUploadOptions{
		ChunkBudgetBytes: conf.Dataset.ChunkBudgetBytes,
		CSV: fileparser.CSVOptions{
			Delimiter:  delimiter,
			TimeColumn: conf.Dataset.TimeColumn,
			Match:      fileparser.ColumnMatch(conf.Dataset.TimeColumnMatch),
			Precision:  conf.Dataset.TimePrecision,
		},
	}
}

// BuiltInModules returns the gateway modules in registration order. The
// import log comes first because the plan and dataset controllers look up
// its service.
func BuiltInModules(conf *configuration.Configuration, upstream Executor, startedAt time.Time) ([]application.Module, error) {
	importOpts, err := PlanImportOptions(conf)
	if err != nil {
		return nil, err
	}
	return []application.Module{
		importlog.NewModule(),
		plan.NewModule(&plan.ModuleOptions{
			Upstream:        upstream,
			Import:          importOpts,
			MaxUploadMemory: conf.MaxUploadMemory,
		}),
		dataset.NewModule(&dataset.ModuleOptions{
			Upstream:        upstream,
			Upload:          DatasetUploadOptions(conf),
			MaxUploadMemory: conf.MaxUploadMemory,
		}),
		health.NewModule(&health.ModuleOptions{
			Version:   conf.Version,
			StartedAt: startedAt,
		}),
	}, nil
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
