// Package embedding provides text embedding via ONNX, model weight
// acquisition, and the lazily initialized embedding engine.
package embedding

import "context"

// Embedder produces unit-normalized vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
