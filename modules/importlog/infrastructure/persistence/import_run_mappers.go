package persistence

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/infrastructure/persistence/models"
)

func toDBImportRun(run *importrun.ImportRun) *models.ImportRun {
	row := &models.ImportRun{
		ID:        run.ID.String(),
		Kind:      string(run.Kind),
		Name:      run.Name,
		UserID:    run.UserID,
		Status:    string(run.Status),
		Error:     run.Error,
		StartedAt: run.StartedAt,
	}
	if run.ResourceID != nil {
		row.ResourceID = sql.NullInt64{Int64: int64(*run.ResourceID), Valid: true}
	}
	if run.FinishedAt != nil {
		row.FinishedAt = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}
	return row
}

func toDomainImportRun(row *models.ImportRun) *importrun.ImportRun {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		id = uuid.Nil
	}
	run := &importrun.ImportRun{
		ID:        id,
		Kind:      importrun.Kind(row.Kind),
		Name:      row.Name,
		UserID:    row.UserID,
		Status:    importrun.Status(row.Status),
		Error:     row.Error,
		StartedAt: row.StartedAt,
	}
	if row.ResourceID.Valid {
		v := int(row.ResourceID.Int64)
		run.ResourceID = &v
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time
		run.FinishedAt = &t
	}
	return run
}
