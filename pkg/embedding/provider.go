package embedding

import "context"

// Provider generates text embeddings. Queries and documents go through
// separate methods because most models want a different framing for each
// (instruction prefixes, task types); callers never deal with that asymmetry.
type Provider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}
