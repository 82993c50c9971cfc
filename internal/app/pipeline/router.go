package pipeline

import (
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/classify"
	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/normalize"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
	"github.com/ThomasCarey4/SerenSync/internal/throttle"
)

// CategoryWriter delivers one measurement for a category. The socket
// manager implements it; tests use recorders.
type CategoryWriter interface {
	Write(m domain.Measurement)
}

// Router runs the classification → throttle → normalization → delivery
// pipeline for each raw value. All state it touches is owned by it or
// mutex-guarded, and OnValue runs to completion per event.
type Router struct {
	classifier *classify.Classifier
	gate       *throttle.Gate
	writers    map[domain.Category]CategoryWriter
	intervals  map[domain.Category]time.Duration
	queue      ports.MeasurementQueue
	obs        ports.Observability
	now        func() time.Time
}

// RouterConfig wires a Router from owned components. Queue is optional and
// receives a copy of every forwarded measurement for archiving. Now defaults
// to time.Now.
type RouterConfig struct {
	Classifier *classify.Classifier
	Gate       *throttle.Gate
	Writers    map[domain.Category]CategoryWriter
	Intervals  map[domain.Category]time.Duration
	Queue      ports.MeasurementQueue
	Now        func() time.Time
}

func NewRouter(cfg RouterConfig, obs ports.Observability) *Router {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Router{
		classifier: cfg.Classifier,
		gate:       cfg.Gate,
		writers:    cfg.Writers,
		intervals:  cfg.Intervals,
		queue:      cfg.Queue,
		obs:        obs,
		now:        now,
	}
}

// Gate exposes the throttle gate for cardinality gauges.
func (r *Router) Gate() *throttle.Gate { return r.gate }

// OnValue processes one raw value synchronously. Every drop path returns
// without surfacing an error; delivery is best effort end to end.
func (r *Router) OnValue(raw domain.RawValue) {
	r.obs.IncCounter("serensync_values_received_total", 1)

	category := r.classifier.Classify(raw.Path)
	if category == domain.CategoryDump {
		r.obs.IncCounter("serensync_values_discarded_total", 1)
		r.obs.LogDebug("value_discarded_classification",
			ports.Field{Key: "path", Value: raw.Path})
		return
	}

	writer, ok := r.writers[category]
	if !ok {
		r.obs.IncCounter("serensync_values_discarded_total", 1)
		return
	}

	// The degenerate fix check inspects the raw structured value and runs
	// before the throttle so an invalid fix never consumes the window.
	if category == domain.CategoryPosition && normalize.DegeneratePosition(raw.Value) {
		r.obs.IncCounter("serensync_values_discarded_total", 1)
		r.obs.LogDebug("value_discarded_degenerate_position",
			ports.Field{Key: "path", Value: raw.Path})
		return
	}

	nowMillis := r.now().UnixMilli()
	if !r.gate.ShouldTransmit(raw.Path, r.intervals[category], nowMillis) {
		r.obs.IncCounter("serensync_values_throttled_total", 1)
		r.obs.LogDebug("value_throttled",
			ports.Field{Key: "path", Value: raw.Path},
			ports.Field{Key: "category", Value: string(category)})
		return
	}

	meas, err := normalize.Normalize(raw, r.now)
	if err != nil {
		r.obs.IncCounter("serensync_values_discarded_total", 1)
		r.obs.LogDebug("value_discarded_invalid",
			ports.Field{Key: "path", Value: raw.Path},
			ports.Field{Key: "error", Value: err.Error()})
		return
	}

	r.gate.Record(raw.Path, nowMillis)
	writer.Write(meas)

	if r.queue != nil {
		if !r.queue.Enqueue(meas) {
			r.obs.LogDebug("archive_queue_full",
				ports.Field{Key: "path", Value: meas.Path})
		}
	}
}
