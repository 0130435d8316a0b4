// Package upstream implements the dataset gateway on top of the GraphQL API.
package upstream

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
)

var ErrEmptyResult = errors.New("operation returned no result")

// Executor is satisfied by *hasura.Client.
type Executor interface {
	Execute(ctx context.Context, op hasura.Operation, vars any, out any) error
}

type DatasetGateway struct {
	exec Executor
}

func NewDatasetGateway(exec Executor) *DatasetGateway {
	return &DatasetGateway{exec: exec}
}

var _ domain.Gateway = (*DatasetGateway)(nil)

type datasetResult struct {
	DatasetID *int `json:"datasetId"`
}

func (g *DatasetGateway) AddExternalDataset(ctx context.Context, dataset domain.AddDataset) (int, error) {
	var out struct {
		AddExternalDataset *datasetResult `json:"addExternalDataset"`
	}
	vars := map[string]any{
		"planId":              dataset.PlanID,
		"simulationDatasetId": dataset.SimulationDatasetID,
		"datasetStart":        dataset.DatasetStart,
		"profileSet":          dataset.Profiles,
	}
	if err := g.exec.Execute(ctx, opAddExternalDataset, vars, &out); err != nil {
		return 0, err
	}
	if out.AddExternalDataset == nil || out.AddExternalDataset.DatasetID == nil {
		return 0, errors.Wrap(ErrEmptyResult, opAddExternalDataset.Name)
	}
	return *out.AddExternalDataset.DatasetID, nil
}

func (g *DatasetGateway) ExtendExternalDataset(
	ctx context.Context,
	datasetID int,
	profiles domain.ProfileSet,
) (int, error) {
	var out struct {
		ExtendExternalDataset *datasetResult `json:"extendExternalDataset"`
	}
	vars := map[string]any{"datasetId": datasetID, "profileSet": profiles}
	if err := g.exec.Execute(ctx, opExtendExternalDataset, vars, &out); err != nil {
		return 0, err
	}
	if out.ExtendExternalDataset == nil || out.ExtendExternalDataset.DatasetID == nil {
		return 0, errors.Wrapf(ErrEmptyResult, "%s %d", opExtendExternalDataset.Name, datasetID)
	}
	return *out.ExtendExternalDataset.DatasetID, nil
}

func (g *DatasetGateway) DeleteExternalDataset(ctx context.Context, datasetID int) error {
	var out struct {
		DeleteExternalDataset *struct {
			AffectedRows int `json:"affected_rows"`
		} `json:"deleteExternalDataset"`
	}
	if err := g.exec.Execute(ctx, opDeleteExternalDataset, map[string]any{"datasetId": datasetID}, &out); err != nil {
		return err
	}
	if out.DeleteExternalDataset == nil || out.DeleteExternalDataset.AffectedRows == 0 {
		return errors.Wrapf(ErrEmptyResult, "%s %d", opDeleteExternalDataset.Name, datasetID)
	}
	return nil
}
