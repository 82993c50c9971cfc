package ports

import (
	"context"
	"net"
)

// Dialer opens the outbound connection a connection manager writes to.
// Production uses net.Dialer; tests inject in-memory pipes.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
