package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/presentation/controllers/dtos"
	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/services"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	importlog "github.com/NASA-AMMOS/aerie-gateway/modules/importlog/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/application"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/upload"
)

const datasetFileField = "external_dataset"

type DatasetController struct {
	uploadService   *services.DatasetUploadService
	runs            *importlog.ImportRunService
	maxUploadMemory int64
	basePath        string
}

type UploadDatasetResponse struct {
	DatasetID int `json:"datasetId"`
}

func NewDatasetController(app application.Application, maxUploadMemory int64) application.Controller {
	return &DatasetController{
		uploadService:   app.Service(services.DatasetUploadService{}).(*services.DatasetUploadService),
		runs:            app.Service(importlog.ImportRunService{}).(*importlog.ImportRunService),
		maxUploadMemory: maxUploadMemory,
		basePath:        "/uploadDataset",
	}
}

func (c *DatasetController) Key() string {
	return c.basePath
}

func (c *DatasetController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Upload).Methods(http.MethodPost)
}

func (c *DatasetController) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(c.maxUploadMemory); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_MULTIPART", err.Error(), nil)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	dto, err := composables.UseForm(&dtos.UploadDatasetDTO{}, r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FORM", err.Error(), nil)
		return
	}
	if errs, ok := dto.Ok(); !ok {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FORM", "invalid form fields", errs)
		return
	}
	file, err := upload.ReadText(r, datasetFileField)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", err.Error(), nil)
		return
	}

	ctx := r.Context()
	run := c.runs.Start(ctx, importrun.KindDataset, file.Name, hasura.IdentityFrom(ctx).UserID)
	id, err := c.uploadService.Upload(ctx, dto.ToRequest(file.Name, file.Bytes))
	if err != nil {
		c.runs.Finish(ctx, run, nil, err)
		composables.TryUseLogger(ctx).WithError(err).Error("dataset upload failed")
		_ = httpapi.WritePipelineError(w, err)
		return
	}
	c.runs.Finish(ctx, run, &id, nil)
	_ = httpapi.WriteJSON(w, http.StatusOK, UploadDatasetResponse{DatasetID: id})
}
