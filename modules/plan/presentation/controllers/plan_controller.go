package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	importlog "github.com/NASA-AMMOS/aerie-gateway/modules/importlog/services"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/presentation/controllers/dtos"
	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/upload"
)

const planFileField = "plan_file"

type PlanController struct {
	importService   *services.PlanImportService
	runs            *importlog.ImportRunService
	maxUploadMemory int64
	basePath        string
}

func NewPlanController(app application.Application, maxUploadMemory int64) application.Controller {
	return &PlanController{
		importService:   app.Service(services.PlanImportService{}).(*services.PlanImportService),
		runs:            app.Service(importlog.ImportRunService{}).(*importlog.ImportRunService),
		maxUploadMemory: maxUploadMemory,
		basePath:        "/importPlan",
	}
}

func (c *PlanController) Key() string {
	return c.basePath
}

func (c *PlanController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Import).Methods(http.MethodPost)
}

func (c *PlanController) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(c.maxUploadMemory); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_MULTIPART", err.Error(), nil)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	dto, err := composables.UseForm(&dtos.ImportPlanDTO{}, r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FORM", err.Error(), nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FORM", "invalid form fields", errs)
		return
	}
	file, err := upload.ReadText(r, planFileField)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", err.Error(), nil)
		return
	}

	ctx := r.Context()
	run := c.runs.Start(ctx, importrun.KindPlan, dto.Name, hasura.IdentityFrom(ctx).UserID)
	res, err := c.importService.Import(ctx, dto.ToRequest(file.Bytes))
	if err != nil {
		c.runs.Finish(ctx, run, nil, err)
		composables.TryUseLogger(ctx).WithError(err).Error("plan import failed")
		_ = httpapi.WritePipelineError(w, err)
		return
	}
	c.runs.Finish(ctx, run, &res.Plan.ID, nil)
	_ = httpapi.WriteJSON(w, http.StatusOK, res.Plan)
}
