package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
)

// ImportRunService keeps the ledger of import and upload requests. Start and
// Finish never fail the request they describe: repository errors are logged
// and dropped.
type ImportRunService struct {
	repo importrun.Repository
	now  func() time.Time
}

func NewImportRunService(repo importrun.Repository) *ImportRunService {
	return &ImportRunService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *ImportRunService) Start(ctx context.Context, kind importrun.Kind, name, userID string) *importrun.ImportRun {
	run := &importrun.ImportRun{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		UserID:    userID,
		Status:    importrun.StatusRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, run); err != nil {
		composables.TryUseLogger(ctx).WithError(err).WithField("run", run.ID).Warn("failed to record import run")
	}
	return run
}

// Finish marks run as succeeded with resourceID, or as failed when err is
// non-nil.
func (s *ImportRunService) Finish(ctx context.Context, run *importrun.ImportRun, resourceID *int, err error) {
	if run == nil {
		return
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = importrun.StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = importrun.StatusSucceeded
		run.ResourceID = resourceID
	}
	if uerr := s.repo.Update(ctx, run); uerr != nil {
		composables.TryUseLogger(ctx).WithError(uerr).WithField("run", run.ID).Warn("failed to finish import run")
	}
}

func (s *ImportRunService) List(
	ctx context.Context,
	params *importrun.FindParams,
) ([]*importrun.ImportRun, int64, error) {
	if params == nil {
		params = &importrun.FindParams{}
	}
	runs, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return runs, count, nil
}
