package ports

import "github.com/ThomasCarey4/SerenSync/internal/domain"

// MeasurementQueue is the bounded FIFO between the router and the archive
// pump. Enqueue reports false when the queue is full; the caller drops.
type MeasurementQueue interface {
	Enqueue(m domain.Measurement) bool
	DequeueBatch(max int) []domain.Measurement
	Len() int
}
