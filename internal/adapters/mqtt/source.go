package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// Config captures the runtime details required to open an MQTT subscription.
type Config struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Topic          string        `yaml:"topic"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "serensync-" + uuid.NewString()[:8]
	}
	if c.Topic == "" {
		c.Topic = "telemetry/values"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1, or 2, got %d", c.QoS)
	}
	return nil
}

// payload is the wire shape of one telemetry value on the subscription
// topic. The $source key carries provenance.
type payload struct {
	Path      string          `json:"path"`
	Value     json.RawMessage `json:"value"`
	Timestamp json.RawMessage `json:"timestamp"`
	Source    string          `json:"$source"`
}

// Source subscribes to a telemetry topic and pushes parsed values into the
// pipeline. Broker reconnection is delegated to the paho client.
type Source struct {
	cfg    Config
	obs    ports.Observability
	client mqtt.Client

	mu      sync.Mutex
	out     chan<- domain.RawValue
	started bool
}

func NewSource(cfg Config, obs ports.Observability) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg, obs: obs}, nil
}

func (s *Source) Start(out chan<- domain.RawValue) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("mqtt source already started")
	}
	s.started = true
	s.out = out
	s.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	if token := client.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handleMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("mqtt subscribe %s: %w", s.cfg.Topic, token.Error())
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	s.obs.LogInfo("mqtt_subscribed",
		ports.Field{Key: "broker", Value: s.cfg.Broker},
		ports.Field{Key: "topic", Value: s.cfg.Topic})
	return nil
}

func (s *Source) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	raw, err := ParseMessage(msg.Payload())
	if err != nil {
		s.obs.LogDebug("mqtt_payload_dropped",
			ports.Field{Key: "topic", Value: msg.Topic()},
			ports.Field{Key: "error", Value: err.Error()})
		return
	}

	// The send stays under the mutex so Stop can close the channel without
	// racing an in-flight delivery.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return
	}

	// Drop when the pipeline cannot keep up; ingestion never blocks the
	// broker callback.
	select {
	case s.out <- raw:
	default:
		s.obs.LogDebug("mqtt_value_dropped_backpressure",
			ports.Field{Key: "path", Value: raw.Path})
	}
}

// ParseMessage decodes one JSON telemetry payload into a RawValue. The
// timestamp keeps whatever JSON shape it arrived with (string or number);
// normalization happens downstream.
func ParseMessage(data []byte) (domain.RawValue, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.RawValue{}, fmt.Errorf("decode payload: %w", err)
	}

	raw := domain.RawValue{Path: p.Path, Source: p.Source}
	if len(p.Value) > 0 {
		var v any
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return domain.RawValue{}, fmt.Errorf("decode value: %w", err)
		}
		raw.Value = v
	}
	if len(p.Timestamp) > 0 {
		var ts any
		if err := json.Unmarshal(p.Timestamp, &ts); err != nil {
			return domain.RawValue{}, fmt.Errorf("decode timestamp: %w", err)
		}
		raw.Timestamp = ts
	}
	return raw, nil
}

// Stop unsubscribes, disconnects, and then closes the out channel under the
// handler mutex, so a delivery in flight either completes before the close or
// observes the unregistration.
func (s *Source) Stop() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.started = false
	s.mu.Unlock()

	if client != nil {
		if token := client.Unsubscribe(s.cfg.Topic); token.Wait() && token.Error() != nil {
			s.obs.LogError("mqtt_unsubscribe_failed", token.Error())
		}
		client.Disconnect(250)
	}

	s.mu.Lock()
	if s.out != nil {
		close(s.out)
		s.out = nil
	}
	s.mu.Unlock()
	return nil
}

var _ ports.ValueSource = (*Source)(nil)
