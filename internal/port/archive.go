package port

import (
	"context"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
)

// Archive mirrors terminal extraction results into durable storage for
// history queries. It is best effort: queue correctness never depends on it
// and callers only log its errors.
type Archive interface {
	SaveExtraction(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error
}
