package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/classify"
	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
	"github.com/ThomasCarey4/SerenSync/internal/throttle"
)

type recordingWriter struct {
	mu      sync.Mutex
	records []domain.Measurement
}

func (w *recordingWriter) Write(m domain.Measurement) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, m)
}

func (w *recordingWriter) all() []domain.Measurement {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.Measurement, len(w.records))
	copy(out, w.records)
	return out
}

type nopObs struct{}

func (nopObs) LogDebug(msg string, fields ...ports.Field)            {}
func (nopObs) LogInfo(msg string, fields ...ports.Field)             {}
func (nopObs) LogError(msg string, err error, fields ...ports.Field) {}
func (nopObs) IncCounter(name string, v float64)                     {}
func (nopObs) SetGauge(name string, v float64)                       {}
func (nopObs) ObserveLatency(name string, seconds float64)           {}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRouter(t *testing.T, clock *fakeClock, queue ports.MeasurementQueue) (*Router, map[domain.Category]*recordingWriter) {
	t.Helper()
	classifier, err := classify.New(
		[]string{"design.*"},
		[]classify.CategoryRules{
			{Category: domain.CategorySensor, Patterns: []string{"navigation.speed*", "environment.*"}},
			{Category: domain.CategoryPosition, Patterns: []string{"navigation.position"}},
			{Category: domain.CategoryState, Patterns: []string{"steering.*"}},
		},
	)
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}

	recorders := map[domain.Category]*recordingWriter{
		domain.CategorySensor:   {},
		domain.CategoryPosition: {},
		domain.CategoryState:    {},
	}
	writers := make(map[domain.Category]CategoryWriter, len(recorders))
	for cat, rec := range recorders {
		writers[cat] = rec
	}

	r := NewRouter(RouterConfig{
		Classifier: classifier,
		Gate:       throttle.NewGate(),
		Writers:    writers,
		Intervals: map[domain.Category]time.Duration{
			domain.CategorySensor:   2 * time.Second,
			domain.CategoryPosition: time.Second,
			domain.CategoryState:    time.Second,
		},
		Queue: queue,
		Now:   clock.Now,
	}, nopObs{})
	return r, recorders
}

func TestRouterEndToEndScenario(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_694_458_123_000)}
	r, recorders := newTestRouter(t, clock, nil)

	raw := domain.RawValue{
		Path:      "navigation.speedOverGround",
		Value:     5.1,
		Timestamp: float64(1_694_458_123),
		Source:    "gps.0",
	}
	r.OnValue(raw)

	sensor := recorders[domain.CategorySensor].all()
	if len(sensor) != 1 {
		t.Fatalf("expected exactly one sensor write, got %d", len(sensor))
	}
	want := domain.Measurement{
		Path:   "navigation.speedOverGround",
		Time:   1_694_458_123_000,
		Value:  5.1,
		Source: "gps.0",
	}
	if sensor[0] != want {
		t.Fatalf("unexpected measurement: %+v", sensor[0])
	}

	// A second identical event 500ms later must be throttled.
	clock.advance(500 * time.Millisecond)
	r.OnValue(raw)
	if got := len(recorders[domain.CategorySensor].all()); got != 1 {
		t.Fatalf("expected throttled second event, got %d writes", got)
	}

	// At exactly the 2s interval it passes again.
	clock.advance(1500 * time.Millisecond)
	r.OnValue(raw)
	if got := len(recorders[domain.CategorySensor].all()); got != 2 {
		t.Fatalf("expected write at interval boundary, got %d writes", got)
	}
}

func TestRouterDropsDumpAndUnclassified(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	r, recorders := newTestRouter(t, clock, nil)

	r.OnValue(domain.RawValue{Path: "design.displacement", Value: 1.0, Timestamp: float64(1)})
	r.OnValue(domain.RawValue{Path: "propulsion.rpm", Value: 1.0, Timestamp: float64(1)})

	for cat, rec := range recorders {
		if got := len(rec.all()); got != 0 {
			t.Fatalf("category %s received %d writes for discarded paths", cat, got)
		}
	}
}

func TestRouterDropsDegeneratePositionBeforeThrottle(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	r, recorders := newTestRouter(t, clock, nil)

	degenerate := domain.RawValue{
		Path:      "navigation.position",
		Value:     map[string]any{"latitude": 0.0, "longitude": 12.3},
		Timestamp: float64(1_000),
	}
	r.OnValue(degenerate)
	if got := len(recorders[domain.CategoryPosition].all()); got != 0 {
		t.Fatalf("degenerate position must be dropped, got %d writes", got)
	}

	// The degenerate value must not have consumed the throttle window: a
	// valid fix immediately after still passes.
	valid := domain.RawValue{
		Path:      "navigation.position",
		Value:     map[string]any{"latitude": 45.0, "longitude": 12.3},
		Timestamp: float64(1_000),
	}
	r.OnValue(valid)
	if got := len(recorders[domain.CategoryPosition].all()); got != 1 {
		t.Fatalf("expected valid position forwarded, got %d writes", got)
	}
}

func TestRouterDropsInvalidWithoutRecordingThrottle(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	r, recorders := newTestRouter(t, clock, nil)

	// Missing timestamp: rejected by normalization after passing the gate.
	r.OnValue(domain.RawValue{Path: "navigation.speedOverGround", Value: 5.1})
	if got := len(recorders[domain.CategorySensor].all()); got != 0 {
		t.Fatalf("invalid value must be dropped, got %d writes", got)
	}

	// The rejection must not have recorded a throttle timestamp.
	r.OnValue(domain.RawValue{Path: "navigation.speedOverGround", Value: 5.1, Timestamp: float64(1_000)})
	if got := len(recorders[domain.CategorySensor].all()); got != 1 {
		t.Fatalf("expected valid value forwarded after rejected one, got %d writes", got)
	}
}

type countingQueue struct {
	mu    sync.Mutex
	items []domain.Measurement
}

func (q *countingQueue) Enqueue(m domain.Measurement) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
	return true
}

func (q *countingQueue) DequeueBatch(max int) []domain.Measurement {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *countingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func TestRouterEnqueuesForwardedMeasurements(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	q := &countingQueue{}
	r, _ := newTestRouter(t, clock, q)

	r.OnValue(domain.RawValue{Path: "navigation.speedOverGround", Value: 5.1, Timestamp: float64(1_000)})
	r.OnValue(domain.RawValue{Path: "design.displacement", Value: 1.0, Timestamp: float64(1_000)})

	if got := q.Len(); got != 1 {
		t.Fatalf("expected only forwarded measurements enqueued, got %d", got)
	}
}
