package engine

import "github.com/poiesic/recommendit/core"

// Monitor provides hooks to observe a recommendation as it walks the ladder.
// Implement this interface to trace intermediate counts during tuning.
// Hooks run on the caller's goroutine.
type Monitor interface {
	Start(query core.Query)
	AfterScoring(scores []float32)
	AfterFilter(candidates int)
	Relaxed(minScore float32)
	KeywordFallback(tokens []string, matches int)
	LastResort(candidates int)
	Finish(result *core.Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                {}
func (n *noopMonitor) AfterScoring(_ []float32)          {}
func (n *noopMonitor) AfterFilter(_ int)                 {}
func (n *noopMonitor) Relaxed(_ float32)                 {}
func (n *noopMonitor) KeywordFallback(_ []string, _ int) {}
func (n *noopMonitor) LastResort(_ int)                  {}
func (n *noopMonitor) Finish(_ *core.Result)             {}
