package ports

import (
	"context"

	"karyoscore/domain/batch"
)

// RunRepository stores analyzed tables so results can be listed and
// exported again later
type RunRepository interface {
	Save(ctx context.Context, run *batch.Run) error
	// Get returns the run with its results, NOT_FOUND when unknown
	Get(ctx context.Context, id string) (*batch.Run, error)
	// List returns the latest runs, newest first, without their results
	List(ctx context.Context, limit int) ([]*batch.Run, error)
}
