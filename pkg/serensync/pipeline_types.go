package serensync

import (
	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// RawValue is a telemetry value as pushed by a value source.
type RawValue = domain.RawValue

// Measurement is the canonical record written to category connections.
type Measurement = domain.Measurement

// Category names a forwarding destination class.
type Category = domain.Category

// CategoryDump is the reserved discard pseudo-category.
const CategoryDump = domain.CategoryDump

// ValueSource streams raw values into the pipeline (MQTT, simulators,
// embedding hosts).
type ValueSource = ports.ValueSource

// Dialer opens outbound category connections.
type Dialer = ports.Dialer

// Archive persists batches of forwarded measurements.
type Archive = ports.Archive

// MeasurementQueue buffers measurements between router and archive.
type MeasurementQueue = ports.MeasurementQueue

// Observability emits leveled logs and metrics about the pipeline.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field
