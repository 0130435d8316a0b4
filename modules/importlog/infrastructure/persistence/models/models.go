package models

import (
	"database/sql"
	"time"
)

type ImportRun struct {
	ID         string
	Kind       string
	Name       string
	UserID     string
	Status     string
	ResourceID sql.NullInt64
	Error      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}
