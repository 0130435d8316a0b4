package main

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/aerie-gateway/modules"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/infrastructure/upstream"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/services"
)

type importOptions struct {
	file                 string
	name                 string
	modelID              int
	startTime            string
	duration             string
	simulationTemplateID int
	tags                 string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a plan file as a new plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Exported plan JSON file (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Plan name (required)")
	cmd.Flags().IntVar(&opts.modelID, "model-id", 0, "Mission model id (required)")
	cmd.Flags().StringVar(&opts.startTime, "start-time", "", "Plan start time (required)")
	cmd.Flags().StringVar(&opts.duration, "duration", "", "Plan duration (required)")
	cmd.Flags().IntVar(&opts.simulationTemplateID, "simulation-template-id", 0, "Simulation template id")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "JSON list of tag ids to attach to the plan")

	for _, name := range []string{"file", "name", "model-id", "start-time", "duration"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, opts importOptions) error {
	if opts.modelID <= 0 {
		return withCode(exitUsage, errors.New("--model-id must be positive"))
	}
	var tags []int
	if raw := strings.TrimSpace(opts.tags); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return withCode(exitUsage, errors.Wrap(err, "--tags must be a JSON list of ids"))
		}
	}
	file, err := readFile(opts.file)
	if err != nil {
		return err
	}
	importOpts, err := modules.PlanImportOptions(root.conf)
	if err != nil {
		return withCode(exitUsage, err)
	}

	req := services.ImportRequest{
		Name:      opts.name,
		ModelID:   opts.modelID,
		StartTime: opts.startTime,
		Duration:  opts.duration,
		PlanTags:  tags,
		File:      file,
	}
	if opts.simulationTemplateID > 0 {
		id := opts.simulationTemplateID
		req.SimulationTemplateID = &id
	}

	ctx := root.commandContext(cmd.Context(), cmd.ErrOrStderr())
	svc := services.NewPlanImportService(upstream.NewPlanGateway(root.executor()), importOpts)
	res, err := svc.Import(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "import %s", opts.file)
	}
	return writeJSONLine(cmd.OutOrStdout(), res.Plan)
}
