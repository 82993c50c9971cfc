package queue

import (
	"sync"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// MemQueue is a bounded in-memory queue that preserves FIFO ordering. It
// buffers forwarded measurements for the archive pump; when full the newest
// measurement is dropped, keeping the ingestion path non-blocking.
type MemQueue struct {
	mu   sync.Mutex
	data []domain.Measurement
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{
		data: make([]domain.Measurement, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(m domain.Measurement) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, m)
	return true
}

func (q *MemQueue) DequeueBatch(max int) []domain.Measurement {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]domain.Measurement, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.MeasurementQueue = (*MemQueue)(nil)
