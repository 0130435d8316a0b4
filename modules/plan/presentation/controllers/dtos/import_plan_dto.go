package dtos

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/NASA-AMMOS/aerie-gateway/modules/plan/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
)

// ImportPlanDTO holds the form fields of an /importPlan request. Tags is a
// JSON encoded list of tag ids.
type ImportPlanDTO struct {
	Name                 string `form:"name" validate:"required"`
	ModelID              int    `form:"model_id" validate:"required,min=1"`
	StartTime            string `form:"start_time" validate:"required"`
	Duration             string `form:"duration" validate:"required"`
	SimulationTemplateID *int   `form:"simulation_template_id" validate:"omitempty,min=1"`
	Tags                 string `form:"tags" validate:"omitempty,json"`
}

func (d *ImportPlanDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	if errs := constants.Validate.Struct(d); errs != nil {
		for _, err := range errs.(validator.ValidationErrors) {
			errorMessages[err.Field()] = err.Tag()
		}
	}
	if _, err := d.TagIDs(); err != nil {
		errorMessages["Tags"] = "int_list"
	}
	return errorMessages, len(errorMessages) == 0
}

// TagIDs decodes Tags. An empty value is an empty list.
func (d *ImportPlanDTO) TagIDs() ([]int, error) {
	raw := strings.TrimSpace(d.Tags)
	if raw == "" {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *ImportPlanDTO) ToRequest(file []byte) services.ImportRequest {
	tags, _ := d.TagIDs()
	return services.ImportRequest{
		Name:                 d.Name,
		ModelID:              d.ModelID,
		StartTime:            d.StartTime,
		Duration:             d.Duration,
		SimulationTemplateID: d.SimulationTemplateID,
		PlanTags:             tags,
		File:                 file,
	}
}
