package domain

// Category is a forwarding destination class assigned to a path by the
// classifier. The real set of categories comes from configuration; Dump is
// reserved and means "classified but discarded".
type Category string

const (
	CategorySensor   Category = "sensor"
	CategoryPosition Category = "position"
	CategoryState    Category = "state"

	// CategoryDump is the discard pseudo-category. Unclassified paths are
	// treated identically.
	CategoryDump Category = "dump"
)

// RawValue is a telemetry value as delivered by the external subscription.
// Timestamp is either a textual date/time or a number in seconds or
// milliseconds; Value may be any scalar or structured payload.
type RawValue struct {
	Path      string
	Value     any
	Timestamp any
	Source    string
}

// Measurement is the canonical forwarded record. Time is epoch milliseconds.
type Measurement struct {
	Path   string `json:"path"`
	Time   int64  `json:"time"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}
