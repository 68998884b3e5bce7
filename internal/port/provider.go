package port

import "context"

// Provider is a single AI generation capability. Implementations must
// return decoded JSON: normalizing provider quirks (code-fenced output,
// wrapper text) is the adapter's job, not the caller's. Calls may fail
// transiently and must respect the context deadline.
type Provider interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (map[string]any, error)
}
