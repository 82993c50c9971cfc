package queue

import (
	"testing"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
)

func TestMemQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewMemQueue(4)

	m1 := domain.Measurement{Path: "a.b", Time: 1}
	m2 := domain.Measurement{Path: "a.c", Time: 2}

	if !q.Enqueue(m1) || !q.Enqueue(m2) {
		t.Fatalf("expected successful enqueue")
	}

	batch := q.DequeueBatch(1)
	if len(batch) != 1 || batch[0].Path != "a.b" {
		t.Fatalf("unexpected first batch: %+v", batch)
	}

	remaining := q.DequeueBatch(10)
	if len(remaining) != 1 || remaining[0].Path != "a.c" {
		t.Fatalf("unexpected second batch: %+v", remaining)
	}

	if q.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", q.Len())
	}
}

func TestMemQueueCapacity(t *testing.T) {
	q := NewMemQueue(2)

	m := domain.Measurement{Path: "cap"}

	if !q.Enqueue(m) || !q.Enqueue(m) {
		t.Fatalf("expected enqueue within capacity")
	}
	if q.Enqueue(m) {
		t.Fatalf("enqueue should fail when capacity exceeded")
	}

	q.DequeueBatch(1)
	if !q.Enqueue(m) {
		t.Fatalf("expected enqueue to succeed after dequeue")
	}
}
