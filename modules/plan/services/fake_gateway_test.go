package services

import (
	"context"
	"errors"

	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/domain"
)

var errUpstream = errors.New("upstream rejected the request")

// fakeGateway is an in-memory upstream that records every call.
type fakeGateway struct {
	calls []string

	tags       []domain.Tag
	nextTagID  int
	nextDirID  int
	nextPlanID int

	createPlanErr     error
	updateSimErr      error
	updateSimRows     *int
	createTagsErr     error
	createDirErr      error
	dropDirectives    int
	updateAnchorsErr  error
	createPlanTagsErr error

	createdTagInputs [][]domain.TagInsert
	directiveInserts [][]domain.ActivityDirectiveInsert
	anchorUpdates    [][]domain.AnchorUpdate
	planTagInserts   [][]domain.PlanTagInsert
	simUpdates       []domain.SimulationUpdate
	deletedPlans     []int
	deletedTagIDs    [][]int
}

func newFakeGateway(existing ...domain.Tag) *fakeGateway {
	return &fakeGateway{
		tags:       existing,
		nextTagID:  100,
		nextDirID:  500,
		nextPlanID: 42,
	}
}

func (f *fakeGateway) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) CreatePlan(_ context.Context, plan domain.PlanInsert) (*domain.Plan, error) {
	f.calls = append(f.calls, "CreatePlan")
	if f.createPlanErr != nil {
		return nil, f.createPlanErr
	}
	return &domain.Plan{ID: f.nextPlanID, Duration: plan.Duration, StartTime: plan.StartTime}, nil
}

func (f *fakeGateway) UpdateSimulation(_ context.Context, _ int, sim domain.SimulationUpdate) (int, error) {
	f.calls = append(f.calls, "UpdateSimulation")
	f.simUpdates = append(f.simUpdates, sim)
	if f.updateSimErr != nil {
		return 0, f.updateSimErr
	}
	if f.updateSimRows != nil {
		return *f.updateSimRows, nil
	}
	return 1, nil
}

func (f *fakeGateway) GetTags(context.Context) ([]domain.Tag, error) {
	f.calls = append(f.calls, "GetTags")
	return append([]domain.Tag(nil), f.tags...), nil
}

func (f *fakeGateway) CreateTags(_ context.Context, tags []domain.TagInsert) ([]domain.Tag, error) {
	f.calls = append(f.calls, "CreateTags")
	f.createdTagInputs = append(f.createdTagInputs, tags)
	if f.createTagsErr != nil {
		return nil, f.createTagsErr
	}
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		f.nextTagID++
		tag := domain.Tag{ID: f.nextTagID, Name: t.Name, Color: t.Color}
		f.tags = append(f.tags, tag)
		out = append(out, tag)
	}
	return out, nil
}

func (f *fakeGateway) CreateActivityDirectives(
	_ context.Context,
	directives []domain.ActivityDirectiveInsert,
) ([]domain.ActivityDirective, error) {
	f.calls = append(f.calls, "CreateActivityDirectives")
	f.directiveInserts = append(f.directiveInserts, directives)
	if f.createDirErr != nil {
		return nil, f.createDirErr
	}
	out := make([]domain.ActivityDirective, 0, len(directives))
	for _, d := range directives[:len(directives)-f.dropDirectives] {
		f.nextDirID++
		out = append(out, domain.ActivityDirective{ID: f.nextDirID, Type: d.Type})
	}
	return out, nil
}

func (f *fakeGateway) UpdateActivityDirectives(_ context.Context, updates []domain.AnchorUpdate) (int, error) {
	f.calls = append(f.calls, "UpdateActivityDirectives")
	f.anchorUpdates = append(f.anchorUpdates, updates)
	if f.updateAnchorsErr != nil {
		return 0, f.updateAnchorsErr
	}
	return len(updates), nil
}

func (f *fakeGateway) CreatePlanTags(_ context.Context, tags []domain.PlanTagInsert) (int, error) {
	f.calls = append(f.calls, "CreatePlanTags")
	f.planTagInserts = append(f.planTagInserts, tags)
	if f.createPlanTagsErr != nil {
		return 0, f.createPlanTagsErr
	}
	return len(tags), nil
}

func (f *fakeGateway) DeletePlan(_ context.Context, id int) error {
	f.calls = append(f.calls, "DeletePlan")
	f.deletedPlans = append(f.deletedPlans, id)
	return nil
}

func (f *fakeGateway) DeleteTags(_ context.Context, ids []int) (int, error) {
	f.calls = append(f.calls, "DeleteTags")
	f.deletedTagIDs = append(f.deletedTagIDs, ids)
	return len(ids), nil
}
