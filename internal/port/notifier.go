package port

import (
	"context"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
)

// Notifier pushes a terminal job result to a caller-supplied endpoint.
// Delivery is best effort with a bounded timeout; failures are logged by
// the implementation and not retried.
type Notifier interface {
	NotifyResult(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error
}
