package ports

import "github.com/ThomasCarey4/SerenSync/internal/domain"

// ValueSource streams raw telemetry values from any upstream (MQTT,
// simulators, embedding hosts) into the pipeline. Start registers the
// subscription. Stop unregisters it and closes the out channel; the source
// owns the channel once started and guarantees no send happens after Stop
// returns, so consumers drain by ranging until the channel closes.
type ValueSource interface {
	Start(out chan<- domain.RawValue) error
	Stop() error
}
