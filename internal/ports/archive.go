package ports

import "github.com/ThomasCarey4/SerenSync/internal/domain"

// Archive persists batches of forwarded measurements to a downstream store.
// Archiving is best effort: a failed batch is dropped, never retried.
type Archive interface {
	WriteBatch(measurements []domain.Measurement) error
	Name() string
}
