package local

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/poiesic/recommendit/ai"
)

// Stop words carry no signal for matching job descriptions to products
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "we": true, "our": true, "will": true,
}

// Embedder implements ai.Embedder with feature hashing over word tokens.
// Each token is hashed into one of dim buckets and the term-frequency vector is
// L2-normalized. The embedder holds no mutable state and is safe for concurrent use.
type Embedder struct {
	dim    int
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(dim int) *Embedder {
	return &Embedder{
		dim:    dim,
		logger: slog.Default().With("component", "local-embedder"),
	}
}

// NewEmbedder creates a feature-hashing embedder using the configured dimensions.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEmbedder(config.Dimensions), nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

// Dimensions returns the vector length.
func (e *Embedder) Dimensions() int {
	return e.dim
}

func (e *Embedder) embed(text string) []float32 {
	vector := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		vector[bucket(token, e.dim)]++
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	norm := math.Sqrt(sumSquares)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}

// tokenize lowercases text, splits on anything that is not a letter or digit,
// and drops single-rune tokens and stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len([]rune(field)) < 2 || stopWords[field] {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

func bucket(token string, dim int) int {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int(h.Sum64() % uint64(dim))
}
