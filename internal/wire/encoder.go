// Package wire serializes measurements into the newline-delimited records
// written to category connections.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
)

// Format selects the line encoding for a delivery connection.
type Format string

const (
	// FormatJSON encodes each measurement as one JSON object per line.
	FormatJSON Format = "json"
	// FormatPipe encodes each measurement as timestamp_ms|path|source|value
	// with `|` inside source or string values escaped as `\|`.
	FormatPipe Format = "pipe"
)

// ParseFormat validates a configured format name, defaulting empty to JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatPipe:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown delivery format %q", s)
	}
}

// Encoder renders measurements in a fixed format. Zero value encodes JSON.
type Encoder struct {
	format Format
}

func NewEncoder(f Format) *Encoder {
	return &Encoder{format: f}
}

// Encode returns one self-delimited record including the trailing newline.
func (e *Encoder) Encode(m domain.Measurement) ([]byte, error) {
	if e.format == FormatPipe {
		return e.encodePipe(m)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (e *Encoder) encodePipe(m domain.Measurement) ([]byte, error) {
	value, err := pipeValue(m.Value)
	if err != nil {
		return nil, err
	}
	line := fmt.Sprintf("%d|%s|%s|%s\n", m.Time, m.Path, escapePipe(m.Source), value)
	return []byte(line), nil
}

func pipeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return escapePipe(val), nil
	case nil, bool, int, int64, uint64, float32, float64, json.Number:
		return fmt.Sprint(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func escapePipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
