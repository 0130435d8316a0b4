package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/domain"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/fileparser"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/saga"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/serrors"
)

const (
	CodePlanParseFailed         = "PLAN_PARSE_FAILED"
	CodeInvalidAnchor           = "PLAN_INVALID_ANCHOR"
	CodeDuplicateActivity       = "PLAN_DUPLICATE_ACTIVITY"
	CodePlanCreateFailed        = "PLAN_CREATE_FAILED"
	CodeSimulationUpdateFailed  = "SIMULATION_UPDATE_FAILED"
	CodeUnknownTag              = "PLAN_UNKNOWN_TAG"
	CodeActivityInsertionFailed = "ACTIVITY_INSERTION_FAILED"
	CodeAnchorUpdateFailed      = "ANCHOR_UPDATE_FAILED"
	CodePlanTagsFailed          = "PLAN_TAGS_FAILED"
	msgActivityInsertionFailed  = "activity insertion failed"
)

// ImportRequest is one plan import: the form metadata plus the raw file.
type ImportRequest struct {
	Name                 string
	ModelID              int
	StartTime            string
	Duration             string
	SimulationTemplateID *int
	// PlanTags are ids of existing tags to attach to the new plan.
	PlanTags []int
	File     []byte
}

type ImportResult struct {
	Plan        *domain.Plan
	Remap       domain.IdentifierRemap
	CreatedTags []domain.Tag
}

type PlanImportOptions struct {
	AnchorPolicy     domain.AnchorPolicy
	SimulationPolicy domain.SimulationPolicy
}

type PlanImportService struct {
	gateway domain.Gateway
	tags    *TagReconciler
	opts    PlanImportOptions
}

func NewPlanImportService(gateway domain.Gateway, opts PlanImportOptions) *PlanImportService {
	if opts.AnchorPolicy == "" {
		opts.AnchorPolicy = domain.AnchorLenient
	}
	if opts.SimulationPolicy == "" {
		opts.SimulationPolicy = domain.SimulationBestEffort
	}
	return &PlanImportService{
		gateway: gateway,
		tags:    NewTagReconciler(gateway),
		opts:    opts,
	}
}

// ParsePlan decodes a plan file. Members read before a syntax error are
// kept. With the strict anchor policy, anchors must name an activity of the
// same file and activity ids must be unique.
func (s *PlanImportService) ParsePlan(ctx context.Context, file []byte) (*domain.PlanTransfer, error) {
	var transfer domain.PlanTransfer
	complete, err := fileparser.DecodeJSON(file, &transfer)
	if err != nil {
		return nil, serrors.Input(CodePlanParseFailed, err, "cannot parse plan file")
	}
	if !complete {
		composables.TryUseLogger(ctx).Warn("plan file has malformed trailing content; importing what was read")
	}
	if s.opts.AnchorPolicy == domain.AnchorStrict {
		if err := validateAnchors(transfer.Activities); err != nil {
			return nil, err
		}
	}
	return &transfer, nil
}

func validateAnchors(activities []domain.ActivityRecord) error {
	ids := make(map[int]struct{}, len(activities))
	for _, a := range activities {
		if _, dup := ids[a.ID]; dup {
			return serrors.New(serrors.KindInput, CodeDuplicateActivity,
				fmt.Sprintf("activity id %d appears more than once", a.ID))
		}
		ids[a.ID] = struct{}{}
	}
	for _, a := range activities {
		if a.AnchorID == nil {
			continue
		}
		if _, ok := ids[*a.AnchorID]; !ok {
			return serrors.New(serrors.KindInput, CodeInvalidAnchor,
				fmt.Sprintf("activity %d is anchored to unknown activity %d", a.ID, *a.AnchorID))
		}
	}
	return nil
}

// Import materializes a plan file upstream. The steps run strictly in
// order; once the plan exists, any failure deletes the plan and the tags
// this import created before the error is returned.
func (s *PlanImportService) Import(ctx context.Context, req ImportRequest) (res *ImportResult, err error) {
	logger := composables.TryUseLogger(ctx).WithField("plan", req.Name)
	m := getMetrics()
	defer func() {
		if err != nil {
			m.importTotal.WithLabelValues("error", string(serrors.KindOf(err))).Inc()
			return
		}
		m.importTotal.WithLabelValues("ok", "").Inc()
	}()

	transfer, err := s.ParsePlan(ctx, req.File)
	if err != nil {
		return nil, err
	}

	// The tag compensation is registered first so that it runs after the plan
	// delete: the plan's directives reference the tags this import creates.
	sg := saga.New("import-plan", logger)
	var createdTagIDs []int
	sg.Defer("delete created tags", func(ctx context.Context) error {
		if len(createdTagIDs) == 0 {
			return nil
		}
		_, err := s.gateway.DeleteTags(ctx, createdTagIDs)
		return err
	})

	logger.Info("creating plan")
	plan, err := s.gateway.CreatePlan(ctx, domain.PlanInsert{
		Duration:  req.Duration,
		ModelID:   req.ModelID,
		Name:      req.Name,
		StartTime: req.StartTime,
	})
	if err != nil {
		return nil, serrors.Upstream(CodePlanCreateFailed, err, "plan creation unsuccessful")
	}
	logger = logger.WithField("plan-id", plan.ID)
	sg.Defer("delete plan", func(ctx context.Context) error {
		return s.gateway.DeletePlan(ctx, plan.ID)
	})

	res, err = s.populate(ctx, logger, &createdTagIDs, plan, transfer, req)
	if err != nil {
		logger.WithError(err).Error("plan import failed; compensating")
		m.compensationTotal.WithLabelValues(string(serrors.KindOf(err))).Inc()
		sg.Compensate(ctx)
		return nil, err
	}
	m.activitiesTotal.Add(float64(len(res.Remap)))
	logger.Info("imported plan")
	return res, nil
}

// populate runs the steps after plan creation. Ids of tags it creates are
// stored in createdTagIDs as soon as they exist, for compensation.
func (s *PlanImportService) populate(
	ctx context.Context,
	logger *logrus.Entry,
	createdTagIDs *[]int,
	plan *domain.Plan,
	transfer *domain.PlanTransfer,
	req ImportRequest,
) (*ImportResult, error) {
	logger.Info("associating simulation arguments")
	if err := s.updateSimulation(ctx, plan.ID, transfer, req); err != nil {
		if s.opts.SimulationPolicy == domain.SimulationRequired {
			return nil, err
		}
		logger.WithError(err).Warn("simulation arguments were not stored")
	}

	logger.Info("reconciling tags")
	recon, err := s.tags.Reconcile(ctx, RequiredTags(transfer.Activities))
	*createdTagIDs = recon.CreatedIDs()
	if err != nil {
		return nil, err
	}

	logger.WithField("count", len(transfer.Activities)).Info("importing activities")
	remap, err := s.createDirectives(ctx, plan.ID, transfer.Activities, recon.ByName)
	if err != nil {
		return nil, err
	}

	logger.Info("re-assigning anchors")
	if err := s.repairAnchors(ctx, logger, plan.ID, transfer.Activities, remap); err != nil {
		return nil, err
	}

	if len(req.PlanTags) > 0 {
		logger.Info("importing plan tags")
		tags := make([]domain.PlanTagInsert, 0, len(req.PlanTags))
		for _, id := range req.PlanTags {
			tags = append(tags, domain.PlanTagInsert{PlanID: plan.ID, TagID: id})
		}
		if _, err := s.gateway.CreatePlanTags(ctx, tags); err != nil {
			return nil, serrors.Upstream(CodePlanTagsFailed, err, "associate plan tags")
		}
	}

	return &ImportResult{Plan: plan, Remap: remap, CreatedTags: recon.Created}, nil
}

func (s *PlanImportService) updateSimulation(
	ctx context.Context,
	planID int,
	transfer *domain.PlanTransfer,
	req ImportRequest,
) error {
	n, err := s.gateway.UpdateSimulation(ctx, planID, domain.SimulationUpdate{
		Arguments:            transfer.SimulationArguments,
		SimulationTemplateID: req.SimulationTemplateID,
	})
	if err != nil {
		return serrors.Upstream(CodeSimulationUpdateFailed, err, "update simulation")
	}
	if n == 0 {
		return serrors.New(serrors.KindUpstream, CodeSimulationUpdateFailed, "plan has no simulation to update")
	}
	return nil
}

// createDirectives inserts every activity in one call and pairs the returned
// directives with the submitted records by position.
func (s *PlanImportService) createDirectives(
	ctx context.Context,
	planID int,
	activities []domain.ActivityRecord,
	tags map[string]domain.Tag,
) (domain.IdentifierRemap, error) {
	remap := make(domain.IdentifierRemap, len(activities))
	if len(activities) == 0 {
		return remap, nil
	}

	inserts := make([]domain.ActivityDirectiveInsert, 0, len(activities))
	for _, a := range activities {
		directiveTags := make([]domain.DirectiveTag, 0, len(a.Tags))
		for _, t := range a.Tags {
			tag, ok := tags[t.Tag.Name]
			if !ok {
				return nil, serrors.New(serrors.KindUpstream, CodeUnknownTag,
					fmt.Sprintf("tag %q was not found or created", t.Tag.Name))
			}
			directiveTags = append(directiveTags, domain.DirectiveTag{TagID: tag.ID})
		}
		inserts = append(inserts, domain.ActivityDirectiveInsert{
			AnchorID:        nil,
			AnchoredToStart: a.AnchoredToStart,
			Arguments:       a.Arguments,
			Metadata:        a.Metadata,
			Name:            a.Name,
			PlanID:          planID,
			StartOffset:     a.StartOffset,
			Tags:            domain.DirectiveTags{Data: directiveTags},
			Type:            a.Type,
		})
	}

	created, err := s.gateway.CreateActivityDirectives(ctx, inserts)
	if err != nil {
		return nil, serrors.Upstream(CodeActivityInsertionFailed, err, msgActivityInsertionFailed)
	}
	if len(created) != len(inserts) {
		return nil, serrors.New(serrors.KindCountMismatch, CodeActivityInsertionFailed,
			fmt.Sprintf("%s: %d of %d activities created", msgActivityInsertionFailed, len(created), len(inserts)))
	}
	for i, a := range activities {
		if created[i].Type != "" && created[i].Type != a.Type {
			return nil, serrors.New(serrors.KindCountMismatch, CodeActivityInsertionFailed,
				fmt.Sprintf("%s: directive %d has type %q, expected %q", msgActivityInsertionFailed,
					created[i].ID, created[i].Type, a.Type))
		}
		remap[a.ID] = created[i].ID
	}
	return remap, nil
}

// repairAnchors points each anchored directive at the server id of its
// anchor in one bulk update.
func (s *PlanImportService) repairAnchors(
	ctx context.Context,
	logger *logrus.Entry,
	planID int,
	activities []domain.ActivityRecord,
	remap domain.IdentifierRemap,
) error {
	var updates []domain.AnchorUpdate
	for _, a := range activities {
		if a.AnchorID == nil {
			continue
		}
		target, okTarget := remap[*a.AnchorID]
		self, okSelf := remap[a.ID]
		if !okTarget || !okSelf {
			if s.opts.AnchorPolicy == domain.AnchorStrict {
				return serrors.New(serrors.KindInput, CodeInvalidAnchor,
					fmt.Sprintf("activity %d is anchored to unknown activity %d", a.ID, *a.AnchorID))
			}
			logger.WithFields(logrus.Fields{
				"activity": a.ID,
				"anchor":   *a.AnchorID,
			}).Warn("skipping anchor to an activity outside the file")
			continue
		}
		logger.WithFields(logrus.Fields{
			"directive": self,
			"anchor":    target,
		}).Debug("re-assigning anchor")
		updates = append(updates, domain.AnchorUpdate{DirectiveID: self, PlanID: planID, AnchorID: target})
	}
	if len(updates) == 0 {
		return nil
	}

	affected, err := s.gateway.UpdateActivityDirectives(ctx, updates)
	if err != nil {
		return serrors.Upstream(CodeAnchorUpdateFailed, err, "re-assign anchors")
	}
	if affected < len(updates) {
		return serrors.New(serrors.KindCountMismatch, CodeAnchorUpdateFailed,
			fmt.Sprintf("anchor update affected %d of %d directives", affected, len(updates)))
	}
	return nil
}
