package port

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/allocator"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// Output owns a Signal (ordered multicast to connected sinks) and an
// allocator; it carries its own metadata once set.
type Output struct {
	signal Signal
	pool   *allocator.Pool
	logger *slog.Logger

	mu       sync.RWMutex
	metadata packet.Metadata
	hasMeta  bool
}

// NewOutput creates an Output backed by pool (may be nil if the output
// never allocates, e.g. it only relays buffers it did not itself acquire).
func NewOutput(pool *allocator.Pool, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &Output{pool: pool, logger: logger}
}

// AllocData acquires a buffer of at least size bytes from the output's
// allocator. Returns nil if the allocator is unblocked (pipeline
// shutting down) or this output has no allocator.
func (o *Output) AllocData(size int) *allocator.Handle {
	if o.pool == nil {
		return nil
	}
	return o.pool.Alloc(size)
}

// SetMetadata sets the output's stream metadata.
func (o *Output) SetMetadata(m packet.Metadata) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.metadata = m
	o.hasMeta = true
}

// Metadata returns the output's metadata and whether it has been set.
func (o *Output) Metadata() (packet.Metadata, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.metadata, o.hasMeta
}

// Post delivers p to every connected input's Push and returns the number
// of receivers the packet was delivered to, plus the first error a
// receiver returned (e.g. ErrIncompatibleMetadata from a downstream
// input whose negotiated stream type no longer matches p). Callers
// propagate a non-nil error through their own Process return rather than
// continuing as if delivery succeeded.
func (o *Output) Post(p *packet.Packet) (int, error) {
	n, err := o.signal.Emit(p)
	if n == 0 {
		o.logger.Debug("output had no receiver")
	}
	return n, err
}

// GetSignal returns the output's underlying Signal, the attachment point
// Connect uses to subscribe an input's Push.
func (o *Output) GetSignal() *Signal {
	return &o.signal
}
