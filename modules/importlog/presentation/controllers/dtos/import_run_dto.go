package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
)

const defaultLimit = 50

type ListImportRunsDTO struct {
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
	Kind   string `form:"kind" validate:"omitempty,oneof=plan dataset"`
	Status string `form:"status" validate:"omitempty,oneof=running succeeded failed"`
}

// Ok validates the query and returns a message per offending field.
func (d *ListImportRunsDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return errorMessages, true
	}
	for _, err := range errs.(validator.ValidationErrors) {
		errorMessages[err.Field()] = err.Tag()
	}
	return errorMessages, len(errorMessages) == 0
}

func (d *ListImportRunsDTO) ToFindParams() *importrun.FindParams {
	limit := d.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	return &importrun.FindParams{
		Kind:   importrun.Kind(d.Kind),
		Status: importrun.Status(d.Status),
		Limit:  limit,
		Offset: d.Offset,
	}
}

type ImportRunResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	UserID     string     `json:"userId,omitempty"`
	Status     string     `json:"status"`
	ResourceID *int       `json:"resourceId,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type ImportRunsResponse struct {
	Runs  []ImportRunResponse `json:"runs"`
	Total int64               `json:"total"`
}

func ToImportRunsResponse(runs []*importrun.ImportRun, total int64) *ImportRunsResponse {
	out := &ImportRunsResponse{Runs: make([]ImportRunResponse, 0, len(runs)), Total: total}
	for _, r := range runs {
		out.Runs = append(out.Runs, ImportRunResponse{
			ID:         r.ID.String(),
			Kind:       string(r.Kind),
			Name:       r.Name,
			UserID:     r.UserID,
			Status:     string(r.Status),
			ResourceID: r.ResourceID,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return out
}
