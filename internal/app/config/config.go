package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ThomasCarey4/SerenSync/internal/adapters/mqtt"
	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/wire"
)

// minInterval is the floor enforced on per-category transmission intervals.
const minInterval = 100 * time.Millisecond

// defaultIntervals are the per-category minimum transmission intervals used
// when a category does not configure one. Unknown categories fall back to
// defaultInterval.
var defaultIntervals = map[domain.Category]time.Duration{
	domain.CategorySensor:   1 * time.Second,
	domain.CategoryPosition: 5 * time.Second,
	domain.CategoryState:    10 * time.Second,
}

const defaultInterval = 1 * time.Second

type Config struct {
	Categories []CategoryConfig `yaml:"categories"`
	Dump       DumpConfig       `yaml:"dump"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	Source     SourceConfig     `yaml:"source"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// CategoryConfig binds one category to its endpoint, interval, and rule list.
type CategoryConfig struct {
	Name       string   `yaml:"name"`
	Network    string   `yaml:"network"`
	Endpoint   string   `yaml:"endpoint"`
	IntervalMS int64    `yaml:"interval_ms"`
	Patterns   []string `yaml:"patterns"`
}

// Interval returns the category's minimum transmission interval.
func (c CategoryConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

type DumpConfig struct {
	Patterns []string `yaml:"patterns"`
}

type DeliveryConfig struct {
	Format           string `yaml:"format"`
	ReconnectDelayMS int64  `yaml:"reconnect_delay_ms"`
}

func (d DeliveryConfig) ReconnectDelay() time.Duration {
	return time.Duration(d.ReconnectDelayMS) * time.Millisecond
}

type SourceConfig struct {
	MQTT *mqtt.Config `yaml:"mqtt"`
}

type ArchiveConfig struct {
	ConnString    string        `yaml:"conn_string"`
	Table         string        `yaml:"table"`
	BatchSize     int           `yaml:"batch_size"`
	QueueLen      int           `yaml:"queue_len"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Enabled reports whether the optional archive pump should run.
func (a ArchiveConfig) Enabled() bool { return a.ConnString != "" }

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Network == "" {
			cat.Network = "unix"
		}
		if cat.IntervalMS == 0 {
			def, ok := defaultIntervals[domain.Category(cat.Name)]
			if !ok {
				def = defaultInterval
			}
			cat.IntervalMS = def.Milliseconds()
		}
		if cat.IntervalMS < minInterval.Milliseconds() {
			cat.IntervalMS = minInterval.Milliseconds()
		}
	}

	if c.Delivery.Format == "" {
		c.Delivery.Format = string(wire.FormatJSON)
	}
	if c.Delivery.ReconnectDelayMS == 0 {
		c.Delivery.ReconnectDelayMS = 5000
	}

	if c.Archive.Enabled() {
		if c.Archive.Table == "" {
			c.Archive.Table = "measurements"
		}
		if c.Archive.BatchSize == 0 {
			c.Archive.BatchSize = 500
		}
		if c.Archive.QueueLen == 0 {
			c.Archive.QueueLen = 10_000
		}
		if c.Archive.FlushInterval == 0 {
			c.Archive.FlushInterval = time.Second
		}
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	if c.Source.MQTT != nil {
		c.Source.MQTT.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category name is required")
		}
		if cat.Name == string(domain.CategoryDump) {
			return fmt.Errorf("%q is reserved and cannot be a delivery category", domain.CategoryDump)
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if cat.Endpoint == "" {
			return fmt.Errorf("category %q: endpoint is required", cat.Name)
		}
	}

	if _, err := wire.ParseFormat(c.Delivery.Format); err != nil {
		return fmt.Errorf("delivery config: %w", err)
	}

	if c.Source.MQTT != nil {
		if err := c.Source.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt config: %w", err)
		}
	}
	return nil
}
