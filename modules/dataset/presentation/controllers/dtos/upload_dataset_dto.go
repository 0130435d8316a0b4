package dtos

import (
	"github.com/go-playground/validator/v10"

	"github.com/NASA-AMMOS/aerie-gateway/modules/dataset/services"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/constants"
)

type UploadDatasetDTO struct {
	PlanID              int  `form:"plan_id" validate:"required,min=1"`
	SimulationDatasetID *int `form:"simulation_dataset_id" validate:"omitempty,min=1"`
}

func (d *UploadDatasetDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	if errs := constants.Validate.Struct(d); errs != nil {
		for _, err := range errs.(validator.ValidationErrors) {
			errorMessages[err.Field()] = err.Tag()
		}
	}
	return errorMessages, len(errorMessages) == 0
}

func (d *UploadDatasetDTO) ToRequest(fileName string, file []byte) services.UploadRequest {
	return services.UploadRequest{
		PlanID:              d.PlanID,
		SimulationDatasetID: d.SimulationDatasetID,
		FileName:            fileName,
		File:                file,
	}
}
