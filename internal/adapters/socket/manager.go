// Package socket owns the persistent outbound connection for one category
// and its reconnect supervision. Managers are fully independent: a reconnect
// storm on one category never touches another's delivery.
package socket

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
	"github.com/ThomasCarey4/SerenSync/internal/wire"
)

// State is the connection lifecycle state of a Manager.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateConnected
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// DefaultReconnectDelay is the fixed delay between reconnect attempts.
const DefaultReconnectDelay = 5 * time.Second

// NetDialer adapts net.Dialer to the ports.Dialer injection point.
type NetDialer struct {
	d net.Dialer
}

func (n *NetDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return n.d.DialContext(ctx, network, address)
}

var _ ports.Dialer = (*NetDialer)(nil)

// Manager holds the single live connection for one category. Writes are
// best effort: when the connection is down the record is dropped, never
// queued or retried.
type Manager struct {
	category       domain.Category
	network        string
	endpoint       string
	dialer         ports.Dialer
	enc            *wire.Encoder
	obs            ports.Observability
	reconnectDelay time.Duration

	mu           sync.Mutex
	state        State
	conn         net.Conn
	reconnect    *time.Timer
	dialing      bool
	shuttingDown bool
}

// Config carries the per-category delivery settings for one Manager.
type Config struct {
	Category       domain.Category
	Network        string
	Endpoint       string
	Format         wire.Format
	ReconnectDelay time.Duration
}

func NewManager(cfg Config, dialer ports.Dialer, obs ports.Observability) *Manager {
	if cfg.Network == "" {
		cfg.Network = "unix"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if dialer == nil {
		dialer = &NetDialer{}
	}
	return &Manager{
		category:       cfg.Category,
		network:        cfg.Network,
		endpoint:       cfg.Endpoint,
		dialer:         dialer,
		enc:            wire.NewEncoder(cfg.Format),
		obs:            obs,
		reconnectDelay: cfg.ReconnectDelay,
	}
}

// Category returns the category this manager delivers for.
func (m *Manager) Category() domain.Category { return m.category }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect starts an asynchronous dial to the category endpoint. It is a
// no-op while shutting down, dialing, or already connected. There is no
// timeout on the attempt itself; a hung dial stays in Connecting until the
// dialer returns.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.shuttingDown || m.dialing || m.conn != nil {
		m.mu.Unlock()
		return
	}
	m.dialing = true
	m.state = StateConnecting
	m.mu.Unlock()

	go m.dial()
}

func (m *Manager) dial() {
	conn, err := m.dialer.DialContext(context.Background(), m.network, m.endpoint)

	m.mu.Lock()
	m.dialing = false
	if m.shuttingDown {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		// A failed dial is the close event for this attempt; this is the
		// only place that schedules the retry for it.
		m.state = StateClosed
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		m.obs.LogError("connect_failed", err,
			ports.Field{Key: "category", Value: string(m.category)},
			ports.Field{Key: "endpoint", Value: m.endpoint})
		return
	}
	m.conn = conn
	m.state = StateConnected
	m.mu.Unlock()

	m.obs.LogInfo("connected",
		ports.Field{Key: "category", Value: string(m.category)},
		ports.Field{Key: "endpoint", Value: m.endpoint})
	go m.watch(conn)
}

// watch blocks on the connection until the peer closes it or it errors,
// then runs the close transition. Inbound bytes are discarded; delivery
// connections are write-only.
func (m *Manager) watch(conn net.Conn) {
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}
	m.handleClose(conn)
}

func (m *Manager) handleClose(conn net.Conn) {
	m.mu.Lock()
	if m.conn != conn {
		// A newer connection already replaced this one.
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	_ = conn.Close()
	m.conn = nil
	if m.shuttingDown {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.scheduleReconnectLocked()
	m.mu.Unlock()

	m.obs.IncCounter("serensync_reconnects_total", 1)
	m.obs.LogError("connection_closed", nil,
		ports.Field{Key: "category", Value: string(m.category)},
		ports.Field{Key: "endpoint", Value: m.endpoint})
}

// scheduleReconnectLocked arms the one-shot reconnect timer. At most one is
// pending per manager; arming while one is pending is a no-op.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnect != nil || m.shuttingDown {
		return
	}
	m.reconnect = time.AfterFunc(m.reconnectDelay, func() {
		m.mu.Lock()
		m.reconnect = nil
		shuttingDown := m.shuttingDown
		m.mu.Unlock()
		if !shuttingDown {
			m.Connect()
		}
	})
}

// Write serializes and writes the measurement iff the connection is live.
// Otherwise the record is silently dropped at debug level: no queuing, no
// backpressure, no retry.
func (m *Manager) Write(meas domain.Measurement) {
	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		m.mu.Unlock()
		m.obs.IncCounter("serensync_writes_dropped_total", 1)
		m.obs.LogDebug("write_dropped_disconnected",
			ports.Field{Key: "category", Value: string(m.category)},
			ports.Field{Key: "path", Value: meas.Path})
		return
	}
	conn := m.conn
	m.mu.Unlock()

	record, err := m.enc.Encode(meas)
	if err != nil {
		m.obs.IncCounter("serensync_writes_dropped_total", 1)
		m.obs.LogError("encode_failed", err,
			ports.Field{Key: "category", Value: string(m.category)},
			ports.Field{Key: "path", Value: meas.Path})
		return
	}

	if _, err := conn.Write(record); err != nil {
		m.obs.LogError("write_failed", err,
			ports.Field{Key: "category", Value: string(m.category)},
			ports.Field{Key: "path", Value: meas.Path})
		m.handleClose(conn)
		return
	}
	m.obs.IncCounter("serensync_values_forwarded_total", 1)
}

// Shutdown is idempotent: it cancels any pending reconnect timer, closes a
// live connection, and turns Connect into a permanent no-op.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return
	}
	m.shuttingDown = true
	m.state = StateShuttingDown
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.obs.LogInfo("manager_shutdown",
		ports.Field{Key: "category", Value: string(m.category)})
}
