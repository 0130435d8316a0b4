package importrun

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPlan    Kind = "plan"
	KindDataset Kind = "dataset"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPlan, KindDataset:
		return k, nil
	default:
		return "", fmt.Errorf("unknown import kind %q", s)
	}
}

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ImportRun is one /importPlan or /uploadDataset request. ResourceID is the
// created plan or dataset id once the run succeeded.
type ImportRun struct {
	ID         uuid.UUID
	Kind       Kind
	Name       string
	UserID     string
	Status     Status
	ResourceID *int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

type FindParams struct {
	Kind   Kind
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*ImportRun, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, run *ImportRun) error
	Update(ctx context.Context, run *ImportRun) error
}
