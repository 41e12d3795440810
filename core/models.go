package core

import (
	"encoding/binary"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

const (
	// DefaultTopK is the result cap used when a query leaves TopK unset.
	DefaultTopK = 5

	// DefaultMinScore is the strict similarity threshold for a query.
	DefaultMinScore float32 = 0.15

	// RelaxedMinScore is the floor the threshold is lowered to on the single relaxation pass.
	RelaxedMinScore float32 = 0.1

	// KeywordScore is the sentinel score assigned to keyword fallback matches.
	KeywordScore float32 = 0.4

	// AnyLevel disables the experience level filter.
	AnyLevel = "any"
)

// HashText generates a deterministic key from text content using BLAKE2b hashing.
func HashText(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// CatalogItem is one assessment product from the catalog.
type CatalogItem struct {
	ID              int // Ordinal position in the loaded catalog
	ProductName     string
	Description     string
	JobLevels       string // Free text, matched by substring
	DurationMinutes float64
	Category        string
	Keywords        string // Comma or space separated; lowercased category when absent
	SearchText      string // Embedding input, derived at load
}

// BuildSearchText derives the embedding input from the item's source fields.
func BuildSearchText(item *CatalogItem) string {
	return item.ProductName + " " + item.Description + " " + item.Category + " " + item.Keywords
}

// MatchesLevel reports whether the item is eligible for the experience level.
// An empty level or "any" matches every item.
func (c *CatalogItem) MatchesLevel(level string) bool {
	if IsAnyLevel(level) {
		return true
	}
	return strings.Contains(strings.ToLower(c.JobLevels), strings.ToLower(strings.TrimSpace(level)))
}

// IsAnyLevel reports whether level disables the experience filter.
func IsAnyLevel(level string) bool {
	level = strings.TrimSpace(level)
	return level == "" || strings.EqualFold(level, AnyLevel)
}

// Query is a recommendation request.
type Query struct {
	Text            string
	ExperienceLevel string   // "" or "any" disables the filter
	Categories      []string // Empty means no category filter
	TopK            int      // 0 means DefaultTopK
	MinScore        float32
}

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithExperienceLevel sets the experience level filter.
func WithExperienceLevel(level string) QueryOption {
	return func(q *Query) {
		q.ExperienceLevel = level
	}
}

// WithCategories sets the preferred categories.
func WithCategories(categories ...string) QueryOption {
	return func(q *Query) {
		q.Categories = categories
	}
}

// WithTopK sets the result cap.
func WithTopK(k int) QueryOption {
	return func(q *Query) {
		q.TopK = k
	}
}

// WithMinScore sets the strict similarity threshold.
func WithMinScore(score float32) QueryOption {
	return func(q *Query) {
		q.MinScore = score
	}
}

// NewQuery creates a Query with default cap and threshold and applies the options.
func NewQuery(text string, opts ...QueryOption) Query {
	q := Query{
		Text:     text,
		TopK:     DefaultTopK,
		MinScore: DefaultMinScore,
	}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Recommendation pairs a catalog item with its relevance score.
type Recommendation struct {
	Item  CatalogItem
	Score float32
}

// Stage identifies which rung of the fallback ladder produced a result.
type Stage int

const (
	// StageStrict means enough items passed the requested threshold.
	StageStrict Stage = iota + 1
	// StageRelaxed means enough items passed the lowered threshold.
	StageRelaxed
	// StageKeyword means items were matched on query tokens in their keywords.
	StageKeyword
	// StageLastResort means the filtered items were returned by raw score.
	StageLastResort
	// StageFailed means an internal failure was recovered and no items are returned.
	StageFailed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageRelaxed:
		return "relaxed"
	case StageKeyword:
		return "keyword"
	case StageLastResort:
		return "last-resort"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a recommendation request.
type Result struct {
	Stage Stage
	Items []Recommendation
	Err   error // Set only when Stage is StageFailed
}

// Empty reports whether the result carries no items.
func (r *Result) Empty() bool {
	return r == nil || len(r.Items) == 0
}

// Fallback reports whether the items came from a rung below the strict threshold.
func (r *Result) Fallback() bool {
	return r != nil && r.Stage != StageStrict && r.Stage != StageFailed
}

// Failed reports whether an internal failure was recovered.
func (r *Result) Failed() bool {
	return r != nil && r.Stage == StageFailed
}
