// Package throttle enforces a per-path minimum spacing between forwarded
// values. The gate keeps one last-transmission timestamp per distinct path
// for the lifetime of the process and never evicts: memory grows with path
// cardinality, which is acceptable for a fixed sensor topology and is
// exposed as a gauge rather than silently capped.
package throttle

import (
	"sync"
	"time"
)

// Gate is the per-path rate limiter. It is keyed purely by path; the caller
// supplies the interval of whatever category the path classified into.
type Gate struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewGate() *Gate {
	return &Gate{last: make(map[string]int64)}
}

// ShouldTransmit reports whether a value for path may be forwarded at
// nowMillis given the category's minimum interval. Paths never seen default
// to a last transmission at epoch start, so the first value always passes.
// The boundary is inclusive: exactly interval elapsed passes.
func (g *Gate) ShouldTransmit(path string, interval time.Duration, nowMillis int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return nowMillis-g.last[path] >= interval.Milliseconds()
}

// Record stores nowMillis as the last transmission time for path. The stored
// value never rewinds.
func (g *Gate) Record(path string, nowMillis int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if nowMillis > g.last[path] {
		g.last[path] = nowMillis
	}
}

// Len returns the number of distinct paths tracked, for the cardinality gauge.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}
