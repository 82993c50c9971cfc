package serensync

import (
	"errors"
	"sync"

	"github.com/ThomasCarey4/SerenSync/internal/domain"
	"github.com/ThomasCarey4/SerenSync/internal/ports"
)

// ErrSourceClosed is returned when a channel source is pushed to after Stop.
var ErrSourceClosed = errors.New("serensync: source closed")

// NewChannelSource lets embedding hosts push raw values into the pipeline
// directly. It returns the source to hand to WithSource and a Push function;
// Push reports ErrSourceClosed after the runtime stops the source, and
// drops (returning nil) when the pipeline buffer is full. Stopping closes
// the pipeline channel, draining the consumer.
func NewChannelSource() (ValueSource, func(RawValue) error) {
	s := &channelSource{}
	return s, s.push
}

type channelSource struct {
	mu     sync.Mutex
	out    chan<- domain.RawValue
	closed bool
}

func (s *channelSource) Start(out chan<- domain.RawValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	s.out = out
	return nil
}

// Stop closes the out channel. The close happens under the same mutex the
// send path holds, so no push can send after Stop returns.
func (s *channelSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.out != nil {
		close(s.out)
		s.out = nil
	}
	return nil
}

func (s *channelSource) push(raw RawValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.out == nil {
		return ErrSourceClosed
	}
	select {
	case s.out <- raw:
	default:
		// Best-effort ingestion; a full buffer drops the value.
	}
	return nil
}

var _ ports.ValueSource = (*channelSource)(nil)
