package application

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func NewMigrationManager(pool *pgxpool.Pool, logger *logrus.Logger) MigrationManager {
	return &migrationManager{pool: pool, logger: logger}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	logger  *logrus.Logger
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(migrations ...*embed.FS) {
	m.schemas = append(m.schemas, migrations...)
}

// Run executes every registered *.sql file in lexical order. Schemas are
// written with IF NOT EXISTS, so Run is safe on every start.
func (m *migrationManager) Run(ctx context.Context) error {
	if m.pool == nil {
		return errors.New("migrations: no database pool")
	}
	for _, schema := range m.schemas {
		files, err := sqlFiles(schema)
		if err != nil {
			return err
		}
		for _, file := range files {
			body, err := schema.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "read %s", file)
			}
			if _, err := m.pool.Exec(ctx, string(body)); err != nil {
				return errors.Wrapf(err, "apply %s", file)
			}
			m.logger.WithField("file", file).Info("schema applied")
		}
	}
	return nil
}

func sqlFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list schema files")
	}
	sort.Strings(files)
	return files, nil
}
