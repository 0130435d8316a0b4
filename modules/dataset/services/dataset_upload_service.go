package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/fileparser"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/saga"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

const (
	CodeDatasetCreateFailed = "DATASET_CREATE_FAILED"
	CodeDatasetExtendFailed = "DATASET_EXTEND_FAILED"

	// DefaultChunkBudget is the request size ceiling of the dataset API.
	DefaultChunkBudget = 1024
)

type UploadRequest struct {
	PlanID              int
	SimulationDatasetID *int
	// FileName selects the parser by extension.
	FileName string
	File     []byte
}

type DatasetUploadOptions struct {
	ChunkBudgetBytes int
	CSV              fileparser.CSVOptions
}

type DatasetUploadService struct {
	gateway domain.Gateway
	parser  *DatasetParser
	budget  int
}

func NewDatasetUploadService(gateway domain.Gateway, opts DatasetUploadOptions) *DatasetUploadService {
	budget := opts.ChunkBudgetBytes
	if budget <= 0 {
		budget = DefaultChunkBudget
	}
	return &DatasetUploadService{
		gateway: gateway,
		parser:  NewDatasetParser(opts.CSV),
		budget:  budget,
	}
}

// Upload creates an external dataset for the plan and fills it chunk by
// chunk. Input problems, including a segment too large for one request, are
// reported before anything is created. Once the dataset exists, any failure
// deletes it.
func (s *DatasetUploadService) Upload(ctx context.Context, req UploadRequest) (id int, err error) {
	logger := composables.TryUseLogger(ctx).WithField("plan-id", req.PlanID)
	m := getMetrics()
	defer func() {
		if err != nil {
			m.uploadTotal.WithLabelValues("error", string(serrors.KindOf(err))).Inc()
			return
		}
		m.uploadTotal.WithLabelValues("ok", "").Inc()
	}()

	upload, err := s.parser.Parse(req.FileName, req.File)
	if err != nil {
		return 0, err
	}
	chunks, err := PackChunks(upload.Profiles, s.budget)
	if err != nil {
		return 0, err
	}

	logger.WithField("profiles", len(upload.Profiles)).Info("creating external dataset")
	datasetID, err := s.gateway.AddExternalDataset(ctx, domain.AddDataset{
		PlanID:              req.PlanID,
		SimulationDatasetID: req.SimulationDatasetID,
		DatasetStart:        upload.Start,
		Profiles:            upload.Profiles.Shell(),
	})
	if err != nil {
		return 0, serrors.Upstream(CodeDatasetCreateFailed, err, "dataset creation unsuccessful")
	}
	logger = logger.WithField("dataset-id", datasetID)

	sg := saga.New("upload-dataset", logger)
	sg.Defer("delete dataset", func(ctx context.Context) error {
		return s.gateway.DeleteExternalDataset(ctx, datasetID)
	})

	for i, chunk := range chunks {
		logger.WithFields(logrus.Fields{
			"chunk": i + 1,
			"of":    len(chunks),
			"bytes": chunk.Size,
		}).Debug("extending external dataset")
		extended, err := s.gateway.ExtendExternalDataset(ctx, datasetID, chunk.Profiles)
		if err == nil && extended != datasetID {
			err = serrors.New(serrors.KindUpstream, CodeDatasetExtendFailed,
				fmt.Sprintf("extend returned dataset %d, expected %d", extended, datasetID))
		}
		if err != nil {
			logger.WithError(err).Error("dataset upload failed; compensating")
			sg.Compensate(ctx)
			if serrors.KindOf(err) == serrors.KindInternal {
				err = serrors.Upstream(CodeDatasetExtendFailed, err, fmt.Sprintf("extend dataset chunk %d", i+1))
			}
			return 0, err
		}
		m.chunkTotal.Inc()
		m.chunkBytes.Observe(float64(chunk.Size))
	}

	logger.WithField("chunks", len(chunks)).Info("uploaded external dataset")
	return datasetID, nil
}
