package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/domain/entities/importrun"
	"github.com/NASA-AMMOS/aerie-gateway/modules/importlog/infrastructure/persistence/models"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/composables"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/repo"
)

const selectImportRuns = `
		SELECT id, kind, name, user_id, status, resource_id, error, started_at, finished_at
		FROM gateway_import_runs`

type ImportRunRepository struct{}

func NewImportRunRepository() importrun.Repository {
	return &ImportRunRepository{}
}

func (r *ImportRunRepository) List(ctx context.Context, params *importrun.FindParams) ([]*importrun.ImportRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildImportRunFilters(params)
	query := selectImportRuns
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY started_at DESC"
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*importrun.ImportRun
	for rows.Next() {
		var row models.ImportRun
		if err := rows.Scan(
			&row.ID,
			&row.Kind,
			&row.Name,
			&row.UserID,
			&row.Status,
			&row.ResourceID,
			&row.Error,
			&row.StartedAt,
			&row.FinishedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainImportRun(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ImportRunRepository) Count(ctx context.Context, params *importrun.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildImportRunFilters(params)
	query := `SELECT COUNT(*) FROM gateway_import_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ImportRunRepository) Create(ctx context.Context, run *importrun.ImportRun) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBImportRun(run)
	_, err = tx.Exec(
		ctx,
		`INSERT INTO gateway_import_runs (id, kind, name, user_id, status, resource_id, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID,
		row.Kind,
		row.Name,
		row.UserID,
		row.Status,
		row.ResourceID,
		row.Error,
		row.StartedAt,
		row.FinishedAt,
	)
	return err
}

func (r *ImportRunRepository) Update(ctx context.Context, run *importrun.ImportRun) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBImportRun(run)
	tag, err := tx.Exec(
		ctx,
		`UPDATE gateway_import_runs
		 SET status = $2, resource_id = $3, error = $4, finished_at = $5
		 WHERE id = $1`,
		row.ID,
		row.Status,
		row.ResourceID,
		row.Error,
		row.FinishedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import run %s not found", row.ID)
	}
	return nil
}

func buildImportRunFilters(params *importrun.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if params == nil {
		return where, args
	}
	if params.Kind != "" {
		args = append(args, string(params.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	return where, args
}
