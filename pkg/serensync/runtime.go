package serensync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ThomasCarey4/SerenSync/internal/adapters/archive"
	"github.com/ThomasCarey4/SerenSync/internal/adapters/mqtt"
	"github.com/ThomasCarey4/SerenSync/internal/adapters/observability"
	"github.com/ThomasCarey4/SerenSync/internal/adapters/queue"
	"github.com/ThomasCarey4/SerenSync/internal/adapters/socket"
	"github.com/ThomasCarey4/SerenSync/internal/app/pipeline"
	"github.com/ThomasCarey4/SerenSync/internal/classify"
	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
	"github.com/ThomasCarey4/SerenSync/internal/throttle"
	"github.com/ThomasCarey4/SerenSync/internal/wire"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        ports.ValueSource
	dialer        ports.Dialer
	archive       ports.Archive
	queue         ports.MeasurementQueue
	observability ports.Observability
}

// WithSource injects a custom value source (channel adapters, simulators,
// embedding hosts) instead of the configured MQTT subscription.
func WithSource(src ports.ValueSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithDialer overrides how category connections are dialed.
func WithDialer(d ports.Dialer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.dialer = d
	}
}

// WithArchive injects a custom archive backend for forwarded measurements.
func WithArchive(ar ports.Archive) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.archive = ar
	}
}

// WithMeasurementQueue injects a custom queue between router and archive.
func WithMeasurementQueue(q ports.MeasurementQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Runtime owns the classifier, throttle gate, per-category connection
// managers, and the router, with explicit start/stop lifecycle. There is no
// module-level mutable state; everything lives on this struct.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	source   ports.ValueSource
	managers map[domain.Category]*socket.Manager
	router   *pipeline.Router
	queue    ports.MeasurementQueue
	archive  ports.Archive
	db       *sql.DB

	metricsSrv   *http.Server
	gaugeStopCh  chan struct{}
	gaugeDoneCh  chan struct{}
	pumpStopCh   chan struct{}
	pumpDoneCh   chan struct{}
	ingestDoneCh <-chan struct{}

	startMu sync.Mutex
	started bool
	stopped bool
}

// NewRuntime bootstraps the default adapters (MQTT source, net dialer,
// Prometheus observability, Postgres archive when configured). Options
// override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(cfg.Log.Debug)
	}

	rules := make([]classify.CategoryRules, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		rules = append(rules, classify.CategoryRules{
			Category: domain.Category(cat.Name),
			Patterns: cat.Patterns,
		})
	}
	classifier, err := classify.New(cfg.Dump.Patterns, rules)
	if err != nil {
		return nil, err
	}

	format, err := wire.ParseFormat(cfg.Delivery.Format)
	if err != nil {
		return nil, err
	}

	managers := make(map[domain.Category]*socket.Manager, len(cfg.Categories))
	writers := make(map[domain.Category]pipeline.CategoryWriter, len(cfg.Categories))
	intervals := make(map[domain.Category]time.Duration, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		name := domain.Category(cat.Name)
		m := socket.NewManager(socket.Config{
			Category:       name,
			Network:        cat.Network,
			Endpoint:       cat.Endpoint,
			Format:         format,
			ReconnectDelay: cfg.Delivery.ReconnectDelay(),
		}, overrides.dialer, obs)
		managers[name] = m
		writers[name] = m
		intervals[name] = cat.Interval()
	}

	src := overrides.source
	if src == nil {
		if cfg.Source.MQTT == nil {
			return nil, fmt.Errorf("no value source configured: set source.mqtt or inject one with WithSource")
		}
		src, err = mqtt.NewSource(*cfg.Source.MQTT, obs)
		if err != nil {
			return nil, err
		}
	}

	var (
		db *sql.DB
		ar ports.Archive
		mq ports.MeasurementQueue
	)
	if overrides.archive != nil {
		ar = overrides.archive
	} else if cfg.Archive.Enabled() {
		db, err = sql.Open("postgres", cfg.Archive.ConnString)
		if err != nil {
			return nil, err
		}
		ar = archive.NewPostgresArchive(db, cfg.Archive.Table)
	}
	if ar != nil {
		mq = overrides.queue
		if mq == nil {
			mq = queue.NewMemQueue(cfg.Archive.QueueLen)
		}
	}

	router := pipeline.NewRouter(pipeline.RouterConfig{
		Classifier: classifier,
		Gate:       throttle.NewGate(),
		Writers:    writers,
		Intervals:  intervals,
		Queue:      mq,
	}, obs)

	return &Runtime{
		cfg:      cfg,
		obs:      obs,
		source:   src,
		managers: managers,
		router:   router,
		queue:    mq,
		archive:  ar,
		db:       db,
	}, nil
}

// Start begins connecting every category, subscribes to the value source,
// and launches the archive pump and observability stack. It returns
// immediately; call Run to block on a context instead.
//
// A subscription failure is logged at error level and returned, but the
// runtime stays started with its connections up: ingestion is simply inert
// until the operator fixes the source configuration and restarts.
func (r *Runtime) Start() error {
	r.startMu.Lock()
	if r.started {
		r.startMu.Unlock()
		return fmt.Errorf("runtime already started")
	}
	r.started = true
	r.startMu.Unlock()

	for _, m := range r.managers {
		m.Connect()
	}

	if r.archive != nil {
		r.pumpStopCh = make(chan struct{})
		r.pumpDoneCh = make(chan struct{})
		go func() {
			pipeline.RunArchivePump(r.queue, r.archive, r.cfg.Archive.BatchSize,
				r.cfg.Archive.FlushInterval, r.obs, r.pumpStopCh)
			close(r.pumpDoneCh)
		}()
	}

	r.startMetrics()

	_, done, err := pipeline.RunIngest(r.source, r.router, 1024)
	if err != nil {
		r.obs.LogError("subscription_failed", err)
		return err
	}
	r.ingestDoneCh = done
	return nil
}

// Run starts the runtime and blocks until the context is cancelled, then
// performs the shutdown sequence.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return r.Stop()
}

// Stop is idempotent: it unregisters the subscription, drains the in-flight
// ingest events, shuts every connection manager down, and stops the archive
// pump and metrics server. No in-flight write is awaited or retried.
func (r *Runtime) Stop() error {
	r.startMu.Lock()
	if r.stopped {
		r.startMu.Unlock()
		return nil
	}
	r.stopped = true
	r.startMu.Unlock()

	var errs []error

	// The source owns the ingest channel: Stop closes it, which drains the
	// consumer goroutine out.
	if err := r.source.Stop(); err != nil {
		errs = append(errs, err)
	}
	if r.ingestDoneCh != nil {
		<-r.ingestDoneCh
	}

	for _, m := range r.managers {
		m.Shutdown()
	}

	if r.pumpStopCh != nil {
		close(r.pumpStopCh)
		<-r.pumpDoneCh
	}

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		<-r.gaugeDoneCh
	}

	if r.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	r.obs.LogInfo("runtime_stopped")
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	r.gaugeDoneCh = make(chan struct{})
	go func() {
		defer close(r.gaugeDoneCh)
		r.recordResourceGauges(r.gaugeStopCh, time.Second)
	}()
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("serensync_throttle_paths", float64(r.router.Gate().Len()))
			var up int
			for _, m := range r.managers {
				if m.State() == socket.StateConnected {
					up++
				}
			}
			r.obs.SetGauge("serensync_connections_up", float64(up))
			if r.queue != nil {
				r.obs.SetGauge("serensync_archive_queue_length", float64(r.queue.Len()))
			}
		}
	}
}
