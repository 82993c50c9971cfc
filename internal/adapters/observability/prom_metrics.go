package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

type PromObs struct {
	debug    bool
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(debug bool) *PromObs {
	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_values_received_total",
		Help: "Total raw values delivered by the subscription.",
	})
	forwarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_values_forwarded_total",
		Help: "Total measurements written to a category connection.",
	})
	throttled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_values_throttled_total",
		Help: "Values suppressed by the per-path throttle gate.",
	})
	discarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_values_discarded_total",
		Help: "Values dropped by classification (dump or unclassified) or normalization.",
	})
	writeDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_writes_dropped_total",
		Help: "Records dropped because the category connection was not writable.",
	})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_reconnects_total",
		Help: "Connection close events that scheduled a reconnect.",
	})
	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "serensync_archive_stored_total",
		Help: "Measurements persisted by the archive pump.",
	})
	throttlePaths := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "serensync_throttle_paths",
		Help: "Distinct paths tracked by the throttle gate (never evicted).",
	})
	connectionsUp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "serensync_connections_up",
		Help: "Number of category connections currently established.",
	})
	archiveQueue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "serensync_archive_queue_length",
		Help: "Measurements buffered for the archive pump.",
	})
	flushLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "serensync_archive_flush_seconds",
		Help:    "Latency of one archive batch write.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(received, forwarded, throttled, discarded,
		writeDrops, reconnects, archived, throttlePaths, connectionsUp,
		archiveQueue, flushLatency)

	return &PromObs{
		debug: debug,
		counters: map[string]prometheus.Counter{
			"serensync_values_received_total":  received,
			"serensync_values_forwarded_total": forwarded,
			"serensync_values_throttled_total": throttled,
			"serensync_values_discarded_total": discarded,
			"serensync_writes_dropped_total":   writeDrops,
			"serensync_reconnects_total":       reconnects,
			"serensync_archive_stored_total":   archived,
		},
		gauges: map[string]prometheus.Gauge{
			"serensync_throttle_paths":       throttlePaths,
			"serensync_connections_up":       connectionsUp,
			"serensync_archive_queue_length": archiveQueue,
		},
		histos: map[string]prometheus.Observer{
			"serensync_archive_flush_seconds": flushLatency,
		},
	}
}

func (p *PromObs) LogDebug(msg string, fields ...ports.Field) {
	if p.debug {
		log.Printf("DEBUG: %s%s", msg, formatFields(fields))
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
		return
	}
	log.Printf("ERROR: %s%s", msg, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
