package serensync

import (
	base "github.com/ThomasCarey4/SerenSync/pkg/serensync"
)

// Re-exported errors for convenience.
var ErrSourceClosed = base.ErrSourceClosed

// Type aliases so consumers can import github.com/ThomasCarey4/SerenSync directly.
type (
	Config           = base.Config
	CategoryConfig   = base.CategoryConfig
	DumpConfig       = base.DumpConfig
	DeliveryConfig   = base.DeliveryConfig
	SourceConfig     = base.SourceConfig
	MQTTConfig       = base.MQTTConfig
	ArchiveConfig    = base.ArchiveConfig
	MetricsConfig    = base.MetricsConfig
	LogConfig        = base.LogConfig
	Flow             = base.Flow
	FlowOption       = base.FlowOption
	StreamInOption   = base.StreamInOption
	StreamOutOption  = base.StreamOutOption
	Runtime          = base.Runtime
	RuntimeOption    = base.RuntimeOption
	RawValue         = base.RawValue
	Measurement      = base.Measurement
	Category         = base.Category
	ValueSource      = base.ValueSource
	Dialer           = base.Dialer
	Archive          = base.Archive
	MeasurementQueue = base.MeasurementQueue
	Observability    = base.Observability
	Field            = base.Field
)

// CategoryDump is the reserved discard pseudo-category.
const CategoryDump = base.CategoryDump

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSource(src ValueSource) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutDialer(d Dialer) StreamOutOption {
	return base.StreamOutDialer(d)
}

func StreamOutArchive(ar Archive) StreamOutOption {
	return base.StreamOutArchive(ar)
}

func StreamOutQueue(q MeasurementQueue) StreamOutOption {
	return base.StreamOutQueue(q)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSource(src ValueSource) RuntimeOption {
	return base.WithSource(src)
}

func WithDialer(d Dialer) RuntimeOption {
	return base.WithDialer(d)
}

func WithArchive(ar Archive) RuntimeOption {
	return base.WithArchive(ar)
}

func WithMeasurementQueue(q MeasurementQueue) RuntimeOption {
	return base.WithMeasurementQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Source adapters.
func NewChannelSource() (ValueSource, func(RawValue) error) {
	return base.NewChannelSource()
}
