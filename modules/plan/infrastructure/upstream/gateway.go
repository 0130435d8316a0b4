// Package upstream implements the plan gateway on top of the GraphQL API.
package upstream

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
)

// ErrEmptyResult is returned when a call succeeds but the expected object is
// null, for example a plan insert the API silently refused.
var ErrEmptyResult = errors.New("operation returned no result")

// Executor is satisfied by *hasura.Client.
type Executor interface {
	Execute(ctx context.Context, op hasura.Operation, vars any, out any) error
}

type PlanGateway struct {
	exec Executor
}

func NewPlanGateway(exec Executor) *PlanGateway {
	return &PlanGateway{exec: exec}
}

var _ domain.Gateway = (*PlanGateway)(nil)

type affectedRows struct {
	AffectedRows int `json:"affected_rows"`
}

func (g *PlanGateway) CreatePlan(ctx context.Context, plan domain.PlanInsert) (*domain.Plan, error) {
	var out struct {
		CreatePlan *domain.Plan `json:"createPlan"`
	}
	if err := g.exec.Execute(ctx, opCreatePlan, map[string]any{"plan": plan}, &out); err != nil {
		return nil, err
	}
	if out.CreatePlan == nil {
		return nil, errors.Wrap(ErrEmptyResult, opCreatePlan.Name)
	}
	return out.CreatePlan, nil
}

func (g *PlanGateway) UpdateSimulation(ctx context.Context, planID int, sim domain.SimulationUpdate) (int, error) {
	var out struct {
		UpdateSimulation *struct {
			Returning []domain.SimulationRef `json:"returning"`
		} `json:"update_simulation"`
	}
	vars := map[string]any{"plan_id": planID, "simulation": sim}
	if err := g.exec.Execute(ctx, opUpdateSimulation, vars, &out); err != nil {
		return 0, err
	}
	if out.UpdateSimulation == nil {
		return 0, errors.Wrap(ErrEmptyResult, opUpdateSimulation.Name)
	}
	return len(out.UpdateSimulation.Returning), nil
}

func (g *PlanGateway) GetTags(ctx context.Context) ([]domain.Tag, error) {
	var out struct {
		Tags []domain.Tag `json:"tags"`
	}
	if err := g.exec.Execute(ctx, opGetTags, nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (g *PlanGateway) CreateTags(ctx context.Context, tags []domain.TagInsert) ([]domain.Tag, error) {
	var out struct {
		InsertTags *struct {
			Returning []domain.Tag `json:"returning"`
		} `json:"insert_tags"`
	}
	if err := g.exec.Execute(ctx, opCreateTags, map[string]any{"tags": tags}, &out); err != nil {
		return nil, err
	}
	if out.InsertTags == nil {
		return nil, errors.Wrap(ErrEmptyResult, opCreateTags.Name)
	}
	return out.InsertTags.Returning, nil
}

func (g *PlanGateway) CreateActivityDirectives(
	ctx context.Context,
	directives []domain.ActivityDirectiveInsert,
) ([]domain.ActivityDirective, error) {
	var out struct {
		InsertActivityDirective *struct {
			Returning []domain.ActivityDirective `json:"returning"`
		} `json:"insert_activity_directive"`
	}
	vars := map[string]any{"activityDirectivesInsertInput": directives}
	if err := g.exec.Execute(ctx, opCreateActivityDirectives, vars, &out); err != nil {
		return nil, err
	}
	if out.InsertActivityDirective == nil {
		return nil, errors.Wrap(ErrEmptyResult, opCreateActivityDirectives.Name)
	}
	return out.InsertActivityDirective.Returning, nil
}

type eqInt struct {
	Eq int `json:"_eq"`
}

type directiveWhere struct {
	ID     eqInt `json:"id"`
	PlanID eqInt `json:"plan_id"`
}

type anchorSet struct {
	AnchorID int `json:"anchor_id"`
}

type directiveUpdate struct {
	Where directiveWhere `json:"where"`
	Set   anchorSet      `json:"_set"`
}

// UpdateActivityDirectives sets every anchor in one update_many call, keyed
// by directive id and plan id.
func (g *PlanGateway) UpdateActivityDirectives(ctx context.Context, updates []domain.AnchorUpdate) (int, error) {
	payload := make([]directiveUpdate, 0, len(updates))
	for _, u := range updates {
		payload = append(payload, directiveUpdate{
			Where: directiveWhere{ID: eqInt{u.DirectiveID}, PlanID: eqInt{u.PlanID}},
			Set:   anchorSet{AnchorID: u.AnchorID},
		})
	}
	var out struct {
		UpdateMany []affectedRows `json:"update_activity_directive_many"`
	}
	if err := g.exec.Execute(ctx, opUpdateActivityDirectives, map[string]any{"updates": payload}, &out); err != nil {
		return 0, err
	}
	total := 0
	for _, r := range out.UpdateMany {
		total += r.AffectedRows
	}
	return total, nil
}

func (g *PlanGateway) CreatePlanTags(ctx context.Context, tags []domain.PlanTagInsert) (int, error) {
	var out struct {
		InsertPlanTags *affectedRows `json:"insert_plan_tags"`
	}
	if err := g.exec.Execute(ctx, opCreatePlanTags, map[string]any{"tags": tags}, &out); err != nil {
		return 0, err
	}
	if out.InsertPlanTags == nil {
		return 0, errors.Wrap(ErrEmptyResult, opCreatePlanTags.Name)
	}
	return out.InsertPlanTags.AffectedRows, nil
}

func (g *PlanGateway) DeletePlan(ctx context.Context, id int) error {
	var out struct {
		DeletePlan *struct {
			ID int `json:"id"`
		} `json:"deletePlan"`
	}
	if err := g.exec.Execute(ctx, opDeletePlan, map[string]any{"id": id}, &out); err != nil {
		return err
	}
	if out.DeletePlan == nil {
		return errors.Wrapf(ErrEmptyResult, "%s %d", opDeletePlan.Name, id)
	}
	return nil
}

func (g *PlanGateway) DeleteTags(ctx context.Context, ids []int) (int, error) {
	var out struct {
		DeleteTags *affectedRows `json:"delete_tags"`
	}
	if err := g.exec.Execute(ctx, opDeleteTags, map[string]any{"tagIds": ids}, &out); err != nil {
		return 0, err
	}
	if out.DeleteTags == nil {
		return 0, errors.Wrap(ErrEmptyResult, opDeleteTags.Name)
	}
	return out.DeleteTags.AffectedRows, nil
}
