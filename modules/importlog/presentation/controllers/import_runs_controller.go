package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/presentation/controllers/dtos"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
)

type ImportRunsController struct {
	runs     *services.ImportRunService
	basePath string
}

func NewImportRunsController(app application.Application) application.Controller {
	return &ImportRunsController{
		runs:     app.Service(services.ImportRunService{}).(*services.ImportRunService),
		basePath: "/importRuns",
	}
}

func (c *ImportRunsController) Key() string {
	return c.basePath
}

func (c *ImportRunsController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.List).Methods(http.MethodGet)
}

func (c *ImportRunsController) List(w http.ResponseWriter, r *http.Request) {
	dto, err := composables.UseQuery(&dtos.ListImportRunsDTO{}, r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error(), nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameters", errs)
		return
	}

	runs, total, err := c.runs.List(r.Context(), dto.ToFindParams())
	if err != nil {
		composables.TryUseLogger(r.Context()).WithError(err).Error("failed to list import runs")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "IMPORT_RUNS_UNAVAILABLE", "import runs are unavailable", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.ToImportRunsResponse(runs, total))
}
