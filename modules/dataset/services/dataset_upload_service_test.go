package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

var errUpstream = errors.New("upstream rejected the request")

type fakeGateway struct {
	calls   []string
	added   []domain.AddDataset
	chunks  []domain.ProfileSet
	deleted []int

	datasetID  int
	addErr     error
	extendErr  error
	failAfter  int
	extendedID int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{datasetID: 77, failAfter: -1}
}

func (f *fakeGateway) AddExternalDataset(_ context.Context, dataset domain.AddDataset) (int, error) {
	f.calls = append(f.calls, "AddExternalDataset")
	f.added = append(f.added, dataset)
	if f.addErr != nil {
		return 0, f.addErr
	}
	return f.datasetID, nil
}

func (f *fakeGateway) ExtendExternalDataset(_ context.Context, id int, profiles domain.ProfileSet) (int, error) {
	f.calls = append(f.calls, "ExtendExternalDataset")
	if f.failAfter >= 0 && len(f.chunks) >= f.failAfter {
		return 0, f.extendErr
	}
	f.chunks = append(f.chunks, profiles)
	if f.extendedID != 0 {
		return f.extendedID, nil
	}
	return id, nil
}

func (f *fakeGateway) DeleteExternalDataset(_ context.Context, id int) error {
	f.calls = append(f.calls, "DeleteExternalDataset")
	f.deleted = append(f.deleted, id)
	return nil
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

// largeCSV has two numeric columns and enough rows to need several chunks.
func largeCSV(rows int) string {
	var b strings.Builder
	b.WriteString("time_utc,alpha,beta\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "2024-001T00:%02d:00,%d.25,%d\n", i, i, i*10)
	}
	return b.String()
}

func TestUpload_ChunksUnderBudget(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	svc := NewDatasetUploadService(gw, DatasetUploadOptions{ChunkBudgetBytes: 1024})

	tmpl := 5
	id, err := svc.Upload(context.Background(), UploadRequest{
		PlanID:              3,
		SimulationDatasetID: &tmpl,
		FileName:            "data.csv",
		File:                []byte(largeCSV(40)),
	})
	require.NoError(t, err)
	assert.Equal(t, 77, id)

	require.Len(t, gw.added, 1)
	shell := gw.added[0]
	assert.Equal(t, 3, shell.PlanID)
	assert.Equal(t, 5, *shell.SimulationDatasetID)
	assert.Equal(t, "2024-001T00:00:00", shell.DatasetStart)
	require.Len(t, shell.Profiles, 2)
	for _, p := range shell.Profiles {
		assert.Empty(t, p.Segments, p.Name)
		assert.NotNil(t, p.Segments, "shell sends an empty list, not null")
	}

	require.GreaterOrEqual(t, len(gw.chunks), 2)
	got := map[string]int{}
	for _, c := range gw.chunks {
		assert.Less(t, encodedSize(t, c), 1024)
		for _, p := range c {
			got[p.Name] += len(p.Segments)
		}
	}
	assert.Equal(t, map[string]int{"alpha": 39, "beta": 39}, got)
	assert.Zero(t, gw.count("DeleteExternalDataset"))
}

func TestUpload_InputErrorsMakeNoCalls(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		budget int
		req    UploadRequest
	}{
		"unsupported extension": {req: UploadRequest{PlanID: 1, FileName: "data.parquet", File: []byte("x")}},
		"missing time column":   {req: UploadRequest{PlanID: 1, FileName: "data.csv", File: []byte("when,a\n2024-001T00:00:00,1\n")}},
		"segment over budget":   {budget: 32, req: UploadRequest{PlanID: 1, FileName: "data.csv", File: []byte(largeCSV(3))}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gw := newFakeGateway()
			svc := NewDatasetUploadService(gw, DatasetUploadOptions{ChunkBudgetBytes: tc.budget})

			_, err := svc.Upload(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, serrors.KindInput, serrors.KindOf(err))
			assert.Empty(t, gw.calls)
		})
	}
}

func TestUpload_CreateFailureCompensatesNothing(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.addErr = errUpstream
	svc := NewDatasetUploadService(gw, DatasetUploadOptions{})

	_, err := svc.Upload(context.Background(), UploadRequest{PlanID: 1, FileName: "d.csv", File: []byte(largeCSV(3))})
	require.ErrorIs(t, err, errUpstream)
	assert.Equal(t, CodeDatasetCreateFailed, serrors.CodeOf(err))
	assert.Zero(t, gw.count("DeleteExternalDataset"))
}

func TestUpload_ExtendFailureDeletesDataset(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.failAfter = 1
	gw.extendErr = errUpstream
	svc := NewDatasetUploadService(gw, DatasetUploadOptions{ChunkBudgetBytes: 1024})

	_, err := svc.Upload(context.Background(), UploadRequest{PlanID: 1, FileName: "d.csv", File: []byte(largeCSV(40))})
	require.ErrorIs(t, err, errUpstream)
	assert.Equal(t, serrors.KindUpstream, serrors.KindOf(err))
	assert.Contains(t, err.Error(), errUpstream.Error())
	assert.Equal(t, []int{77}, gw.deleted)
	assert.Equal(t, "DeleteExternalDataset", gw.calls[len(gw.calls)-1])
}

func TestUpload_ExtendAnswersForAnotherDataset(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.extendedID = 12
	svc := NewDatasetUploadService(gw, DatasetUploadOptions{})

	_, err := svc.Upload(context.Background(), UploadRequest{PlanID: 1, FileName: "d.csv", File: []byte(largeCSV(3))})
	require.Error(t, err)
	assert.Equal(t, CodeDatasetExtendFailed, serrors.CodeOf(err))
	assert.Equal(t, []int{77}, gw.deleted)
}

func TestUpload_EmptyProfilesOnlyCreateShell(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	svc := NewDatasetUploadService(gw, DatasetUploadOptions{})

	file := `{"datasetStart":"2024-001T00:00:00","profileSet":{"a":{"type":"real","schema":{"type":"real"},"segments":[]}}}`
	id, err := svc.Upload(context.Background(), UploadRequest{PlanID: 1, FileName: "d.json", File: []byte(file)})
	require.NoError(t, err)
	assert.Equal(t, 77, id)
	assert.Equal(t, []string{"AddExternalDataset"}, gw.calls)
}
