package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
)

type mockImportRunRepo struct {
	created    []*importrun.ImportRun
	updated    []importrun.ImportRun
	lastParams *importrun.FindParams
	err        error
}

func (m *mockImportRunRepo) List(ctx context.Context, params *importrun.FindParams) ([]*importrun.ImportRun, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *mockImportRunRepo) Count(ctx context.Context, params *importrun.FindParams) (int64, error) {
	return int64(len(m.created)), m.err
}

func (m *mockImportRunRepo) Create(ctx context.Context, run *importrun.ImportRun) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, run)
	return nil
}

func (m *mockImportRunRepo) Update(ctx context.Context, run *importrun.ImportRun) error {
	if m.err != nil {
		return m.err
	}
	m.updated = append(m.updated, *run)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestImportRunService_StartFinishSuccess(t *testing.T) {
	repo := &mockImportRunRepo{}
	svc := NewImportRunService(repo)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	run := svc.Start(context.Background(), importrun.KindPlan, "p", "alice")
	require.Len(t, repo.created, 1)
	require.Equal(t, importrun.StatusRunning, run.Status)
	require.Equal(t, now, run.StartedAt)

	id := 42
	svc.Finish(context.Background(), run, &id, nil)
	require.Len(t, repo.updated, 1)
	require.Equal(t, importrun.StatusSucceeded, repo.updated[0].Status)
	require.Equal(t, 42, *repo.updated[0].ResourceID)
	require.Equal(t, now, *repo.updated[0].FinishedAt)
}

func TestImportRunService_FinishFailure(t *testing.T) {
	repo := &mockImportRunRepo{}
	svc := NewImportRunService(repo)

	run := svc.Start(context.Background(), importrun.KindDataset, "d", "")
	id := 7
	svc.Finish(context.Background(), run, &id, errors.New("upstream refused"))
	require.Equal(t, importrun.StatusFailed, repo.updated[0].Status)
	require.Equal(t, "upstream refused", repo.updated[0].Error)
	require.Nil(t, repo.updated[0].ResourceID)
}

func TestImportRunService_RepositoryErrorsAreSwallowed(t *testing.T) {
	repo := &mockImportRunRepo{err: errors.New("db down")}
	svc := NewImportRunService(repo)

	require.NotPanics(t, func() {
		run := svc.Start(context.Background(), importrun.KindPlan, "p", "")
		require.NotNil(t, run)
		svc.Finish(context.Background(), run, nil, nil)
		svc.Finish(context.Background(), nil, nil, nil)
	})
}

func TestImportRunService_ListDefaultsParams(t *testing.T) {
	repo := &mockImportRunRepo{}
	svc := NewImportRunService(repo)
	svc.Start(context.Background(), importrun.KindPlan, "p", "")

	runs, total, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, int64(1), total)
	require.NotNil(t, repo.lastParams)
}
