// Package normalize converts raw subscription values into canonical
// measurements: validity filtering, timestamp unit normalization, source
// defaulting, and the degenerate-position filter.
package normalize

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
)

var (
	ErrNoPath      = errors.New("value has no path")
	ErrNoValue     = errors.New("value payload is missing")
	ErrNoTimestamp = errors.New("value has no timestamp")
)

// millisThreshold separates epoch seconds from epoch milliseconds in numeric
// timestamps. Values above it are taken as milliseconds already. Microsecond
// inputs would be misread as milliseconds; the upstream contract is
// seconds-or-milliseconds only.
const millisThreshold = int64(1e12)

const defaultSource = "unknown"

var textLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Normalize converts raw into a Measurement or returns the reason it was
// rejected. now supplies wall-clock time for the timestamp fallback.
func Normalize(raw domain.RawValue, now func() time.Time) (domain.Measurement, error) {
	if raw.Path == "" {
		return domain.Measurement{}, ErrNoPath
	}
	if raw.Value == nil {
		return domain.Measurement{}, ErrNoValue
	}
	if raw.Timestamp == nil {
		return domain.Measurement{}, ErrNoTimestamp
	}

	source := raw.Source
	if source == "" {
		source = defaultSource
	}

	return domain.Measurement{
		Path:   raw.Path,
		Time:   ParseTimestamp(raw.Timestamp, now),
		Value:  raw.Value,
		Source: source,
	}, nil
}

// ParseTimestamp normalizes a raw timestamp to epoch milliseconds. Textual
// timestamps are parsed against the known layouts; numeric ones above 1e12
// are already milliseconds, at or below are seconds. Anything unparseable or
// of an unrecognized shape falls back to now rather than rejecting.
func ParseTimestamp(ts any, now func() time.Time) int64 {
	switch v := ts.(type) {
	case string:
		for _, layout := range textLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UnixMilli()
			}
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return normalizeNumeric(n)
		}
		return now().UnixMilli()
	case float64:
		return normalizeNumeric(v)
	case float32:
		return normalizeNumeric(float64(v))
	case int:
		return normalizeNumeric(float64(v))
	case int64:
		return normalizeNumeric(float64(v))
	case uint64:
		return normalizeNumeric(float64(v))
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return normalizeNumeric(n)
		}
		return now().UnixMilli()
	case time.Time:
		return v.UnixMilli()
	default:
		return now().UnixMilli()
	}
}

func normalizeNumeric(n float64) int64 {
	if n > float64(millisThreshold) {
		return int64(n)
	}
	return int64(n * 1000)
}

// DegeneratePosition reports whether value is a structured position whose
// latitude or longitude equals zero exactly, which marks an uninitialized
// fix rather than a real location at (0,0).
func DegeneratePosition(value any) bool {
	fields, ok := value.(map[string]any)
	if !ok {
		return false
	}
	lat, latOK := numericField(fields, "latitude")
	lon, lonOK := numericField(fields, "longitude")
	if !latOK && !lonOK {
		return false
	}
	return (latOK && lat == 0) || (lonOK && lon == 0)
}

func numericField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}
