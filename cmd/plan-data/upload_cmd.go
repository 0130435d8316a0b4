package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/aerie-gateway/modules"
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/infrastructure/upstream"
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/services"
)

type uploadOptions struct {
	file                string
	planID              int
	simulationDatasetID int
}

func newUploadDatasetCmd(root *rootOptions) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload-dataset",
		Short: "Upload a .json, .csv or .txt file as an external dataset of a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUploadDataset(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Dataset file (required)")
	cmd.Flags().IntVar(&opts.planID, "plan-id", 0, "Plan id (required)")
	cmd.Flags().IntVar(&opts.simulationDatasetID, "simulation-dataset-id", 0, "Simulation dataset id")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("plan-id")
	return cmd
}

func runUploadDataset(cmd *cobra.Command, root *rootOptions, opts uploadOptions) error {
	if opts.planID <= 0 {
		return withCode(exitUsage, errors.New("--plan-id must be positive"))
	}
	file, err := readFile(opts.file)
	if err != nil {
		return err
	}

	req := services.UploadRequest{
		PlanID:   opts.planID,
		FileName: filepath.Base(opts.file),
		File:     file,
	}
	if opts.simulationDatasetID > 0 {
		id := opts.simulationDatasetID
		req.SimulationDatasetID = &id
	}

	ctx := root.commandContext(cmd.Context(), cmd.ErrOrStderr())
	svc := services.NewDatasetUploadService(upstream.NewDatasetGateway(root.executor()), modules.DatasetUploadOptions(root.conf))
	id, err := svc.Upload(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "upload %s", opts.file)
	}
	return writeJSONLine(cmd.OutOrStdout(), map[string]int{"datasetId": id})
}
