package pipeline

import (
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// RunIngest starts the source with a buffered channel and a single consumer
// goroutine, which gives every OnValue run-to-completion semantics without
// locking on the router's hot path. The source owns the channel once started
// and closes it from Stop; the returned done channel closes when the consumer
// drains out.
//
// A source that fails to start is a startup-configuration problem: the error
// is returned for logging and the pipeline stays inert rather than retrying
// the subscription.
func RunIngest(src ports.ValueSource, r *Router, buffer int) (chan domain.RawValue, <-chan struct{}, error) {
	if buffer <= 0 {
		buffer = 1024
	}
	ch := make(chan domain.RawValue, buffer)

	if err := src.Start(ch); err != nil {
		return nil, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for raw := range ch {
			r.OnValue(raw)
		}
	}()

	return ch, done, nil
}

// RunArchivePump drains the measurement queue into the archive in batches
// until stop closes. A failed batch is logged and dropped; archiving is best
// effort like everything downstream of the router.
func RunArchivePump(q ports.MeasurementQueue, ar ports.Archive, batchSize int, flushInterval time.Duration, obs ports.Observability, stop <-chan struct{}) {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		for {
			batch := q.DequeueBatch(batchSize)
			if len(batch) == 0 {
				return
			}
			start := time.Now()
			if err := ar.WriteBatch(batch); err != nil {
				obs.LogError("archive_write_failed", err,
					ports.Field{Key: "archive", Value: ar.Name()},
					ports.Field{Key: "dropped", Value: len(batch)})
				return
			}
			obs.ObserveLatency("serensync_archive_flush_seconds", time.Since(start).Seconds())
			obs.IncCounter("serensync_archive_stored_total", float64(len(batch)))
		}
	}

	for {
		select {
		case <-stop:
			flush()
			return
		case <-ticker.C:
			flush()
		}
	}
}
