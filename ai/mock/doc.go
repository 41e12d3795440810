// Package mock provides test double implementations of the ai.Embedder interface.
//
// The mock lets tests run without external embedding services and gives them
// controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic vectors derived from an FNV hash of the
// text. When only EmbedTextFunc is injected, EmbedTexts applies it per text so
// catalog and query vectors come from the same function.
package mock
