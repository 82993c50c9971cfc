package serensync

import (
	"github.com/ThomasCarey4/SerenSync/internal/adapters/mqtt"
	"github.com/ThomasCarey4/SerenSync/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// CategoryConfig binds one category to its endpoint, interval, and rules.
	CategoryConfig = config.CategoryConfig
	// DumpConfig holds the discard rule list.
	DumpConfig = config.DumpConfig
	// DeliveryConfig selects the wire format and reconnect delay.
	DeliveryConfig = config.DeliveryConfig
	// SourceConfig selects the upstream subscription.
	SourceConfig = config.SourceConfig
	// MQTTConfig holds broker + topic details.
	MQTTConfig = mqtt.Config
	// ArchiveConfig configures the optional Postgres archive.
	ArchiveConfig = config.ArchiveConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig toggles debug logging.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
