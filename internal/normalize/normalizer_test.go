package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
)

func fixedNow() time.Time {
	return time.UnixMilli(1_700_000_000_000)
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		raw  domain.RawValue
		want error
	}{
		{"missing path", domain.RawValue{Value: 1.0, Timestamp: 1.0}, ErrNoPath},
		{"missing value", domain.RawValue{Path: "a.b", Timestamp: 1.0}, ErrNoValue},
		{"missing timestamp", domain.RawValue{Path: "a.b", Value: 1.0}, ErrNoTimestamp},
	}
	for _, tc := range cases {
		if _, err := Normalize(tc.raw, fixedNow); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNormalizeSecondsToMillis(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "navigation.speedOverGround",
		Value:     5.1,
		Timestamp: float64(1_694_458_123),
		Source:    "gps.0",
	}, fixedNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if m.Time != 1_694_458_123_000 {
		t.Fatalf("expected seconds scaled to millis, got %d", m.Time)
	}
	if m.Source != "gps.0" {
		t.Fatalf("expected source preserved, got %q", m.Source)
	}
}

func TestNormalizeMillisUnchanged(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "a.b",
		Value:     1,
		Timestamp: float64(1_694_458_123_456),
	}, fixedNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if m.Time != 1_694_458_123_456 {
		t.Fatalf("expected millis kept as-is, got %d", m.Time)
	}
}

func TestNormalizeTextualTimestamp(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "a.b",
		Value:     1,
		Timestamp: "2023-09-11T17:28:43Z",
	}, fixedNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := time.Date(2023, 9, 11, 17, 28, 43, 0, time.UTC).UnixMilli()
	if m.Time != want {
		t.Fatalf("expected %d, got %d", want, m.Time)
	}
}

func TestNormalizeUnparseableTimestampFallsBackToNow(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "a.b",
		Value:     1,
		Timestamp: "not a timestamp",
	}, fixedNow)
	if err != nil {
		t.Fatalf("fallback must not reject the record: %v", err)
	}
	if m.Time != fixedNow().UnixMilli() {
		t.Fatalf("expected wall-clock fallback, got %d", m.Time)
	}
}

func TestNormalizeUnrecognizedTimestampShapeFallsBackToNow(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "a.b",
		Value:     1,
		Timestamp: []int{1, 2, 3},
	}, fixedNow)
	if err != nil {
		t.Fatalf("fallback must not reject the record: %v", err)
	}
	if m.Time != fixedNow().UnixMilli() {
		t.Fatalf("expected wall-clock fallback, got %d", m.Time)
	}
}

func TestNormalizeDefaultsSource(t *testing.T) {
	m, err := Normalize(domain.RawValue{
		Path:      "a.b",
		Value:     true,
		Timestamp: float64(1),
	}, fixedNow)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if m.Source != "unknown" {
		t.Fatalf("expected default source, got %q", m.Source)
	}
}

func TestDegeneratePosition(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"zero latitude", map[string]any{"latitude": 0.0, "longitude": 12.3}, true},
		{"zero longitude", map[string]any{"latitude": 45.0, "longitude": 0.0}, true},
		{"valid fix", map[string]any{"latitude": 45.0, "longitude": 12.3}, false},
		{"scalar value", 5.1, false},
		{"no coordinates", map[string]any{"altitude": 10.0}, false},
	}
	for _, tc := range cases {
		if got := DegeneratePosition(tc.value); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
