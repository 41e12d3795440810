package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
//
// Query and catalog vectors are only comparable when they come from the same
// Embedder with the same model; the engine never mixes embedders.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface.
// EmbedTexts calls the function once per text, in order.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

var _ Embedder = EmbedderFunc(nil)

// EmbedText calls f(ctx, text).
func (f EmbedderFunc) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EmbedTexts calls f for each text.
func (f EmbedderFunc) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
