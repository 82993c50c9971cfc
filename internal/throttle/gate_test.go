package throttle

import (
	"testing"
	"time"
)

func TestGateFirstValueAlwaysPasses(t *testing.T) {
	g := NewGate()
	if !g.ShouldTransmit("navigation.speedOverGround", 2*time.Second, 1_694_458_123_000) {
		t.Fatalf("expected first value for an unseen path to pass")
	}
}

func TestGateBoundaryIsInclusive(t *testing.T) {
	g := NewGate()
	interval := 2 * time.Second
	base := int64(1_000_000)

	g.Record("navigation.speedOverGround", base)

	if g.ShouldTransmit("navigation.speedOverGround", interval, base+interval.Milliseconds()-1) {
		t.Fatalf("value at interval-1 should be throttled")
	}
	if !g.ShouldTransmit("navigation.speedOverGround", interval, base+interval.Milliseconds()) {
		t.Fatalf("value at exactly the interval should pass")
	}
}

func TestGateIsKeyedByPath(t *testing.T) {
	g := NewGate()
	interval := time.Second
	base := int64(5_000)

	g.Record("a.b", base)

	if g.ShouldTransmit("a.b", interval, base+100) {
		t.Fatalf("same path inside interval should be throttled")
	}
	if !g.ShouldTransmit("a.c", interval, base+100) {
		t.Fatalf("different path should not be throttled")
	}
}

func TestGateRecordNeverRewinds(t *testing.T) {
	g := NewGate()
	g.Record("a.b", 10_000)
	g.Record("a.b", 9_000)

	if g.ShouldTransmit("a.b", time.Second, 10_500) {
		t.Fatalf("stale record must not rewind the last transmission time")
	}
	if !g.ShouldTransmit("a.b", time.Second, 11_000) {
		t.Fatalf("expected pass one interval after the newest record")
	}
}

func TestGateLenTracksDistinctPaths(t *testing.T) {
	g := NewGate()
	g.Record("a.b", 1)
	g.Record("a.c", 2)
	g.Record("a.b", 3)

	if got := g.Len(); got != 2 {
		t.Fatalf("expected 2 tracked paths, got %d", got)
	}
}
