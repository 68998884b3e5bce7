package port

import (
	"context"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
)

type JobStore interface {
	Put(ctx context.Context, job *domain.Job) error
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	// UpdateStatus moves status, progress and the updated-at timestamp
	// together, atomically with respect to concurrent writers. Progress
	// never decreases while the status advances. errMsg must be empty
	// unless status is failed.
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) error
}

type RecipeStore interface {
	Put(ctx context.Context, recipe *domain.Recipe) error
	// Get returns domain.ErrNotFound when no recipe exists for the job.
	Get(ctx context.Context, jobID string) (*domain.Recipe, error)
}
