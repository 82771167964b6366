package port

import (
	"sync"
	"sync/atomic"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// Input owns a FIFO of packets and the module's subscription to whatever
// outputs are connected to it. Push enqueues; the owning module drains via
// Pop/TryPop from its process() call.
type Input struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*packet.Packet
	closed   bool

	connections atomic.Int64

	metaMu   sync.RWMutex
	metadata packet.Metadata
	hasMeta  bool

	// onPush, if set, is invoked synchronously after a packet is
	// enqueued — the hook the owning module's Host uses to schedule a
	// process() call for a passive module.
	onPush func()
}

// NewInput creates an empty Input.
func NewInput(onPush func()) *Input {
	in := &Input{onPush: onPush}
	in.cond = sync.NewCond(&in.mu)
	return in
}

// Connect increments the input's connection refcount. Called once per
// Output wired to this input.
func (in *Input) Connect() {
	in.connections.Add(1)
}

// Disconnect decrements the input's connection refcount.
func (in *Input) Disconnect() {
	in.connections.Add(-1)
}

// NumConnections returns the number of outputs currently wired to this
// input.
func (in *Input) NumConnections() int64 {
	return in.connections.Load()
}

// Push enqueues p. It implements the Receiver signature expected by
// Signal.Connect: Connect subscribes in.Push directly to an output's
// signal. A non-nil error (ErrIncompatibleMetadata) means p was rejected
// and not enqueued; the caller (Signal.Emit, on the emitting module's own
// Process goroutine) propagates it back through that module's Process
// return so the pipeline surfaces it instead of the packet being silently
// dropped or the process crashing.
func (in *Input) Push(p *packet.Packet) error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	if !p.IsNull() {
		if err := in.updateMetadataFrom(p); err != nil {
			in.mu.Unlock()
			return err
		}
	}
	in.queue = append(in.queue, p)
	in.mu.Unlock()
	in.cond.Signal()

	if in.onPush != nil {
		in.onPush()
	}
	return nil
}

// Pop blocks until a packet is available and returns it, FIFO order.
// Returns nil if the input is closed with an empty queue.
func (in *Input) Pop() *packet.Packet {
	in.mu.Lock()
	defer in.mu.Unlock()
	for len(in.queue) == 0 && !in.closed {
		in.cond.Wait()
	}
	if len(in.queue) == 0 {
		return nil
	}
	p := in.queue[0]
	in.queue = in.queue[1:]
	return p
}

// TryPop returns the head packet without blocking. ok is false if the
// queue is empty.
func (in *Input) TryPop() (p *packet.Packet, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil, false
	}
	p = in.queue[0]
	in.queue = in.queue[1:]
	return p, true
}

// Close wakes any goroutine blocked in Pop, causing it to return nil once
// the queue drains. Used at teardown alongside allocator.Pool.Unblock.
func (in *Input) Close() {
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
	in.cond.Broadcast()
}

// SetMetadata sets the input's current metadata (used by Connect
// negotiation).
func (in *Input) SetMetadata(m packet.Metadata) {
	in.metaMu.Lock()
	defer in.metaMu.Unlock()
	in.metadata = m
	in.hasMeta = true
}

// Metadata returns the input's current metadata and whether it is set.
func (in *Input) Metadata() (packet.Metadata, bool) {
	in.metaMu.RLock()
	defer in.metaMu.RUnlock()
	return in.metadata, in.hasMeta
}

// updateMetadataFrom implements spec §4.3 item 5: a data-carried metadata
// that differs from the input's current one, but shares its stream type,
// silently updates the input; a stream-type change is fatal and is
// reported as ErrIncompatibleMetadata rather than recovered, since it
// signals a module/connect-time negotiation bug rather than recoverable
// runtime state. The caller is responsible for surfacing the error
// instead of continuing to process the packet.
func (in *Input) updateMetadataFrom(p *packet.Packet) error {
	in.metaMu.Lock()
	defer in.metaMu.Unlock()
	if !in.hasMeta {
		in.metadata = p.Metadata
		in.hasMeta = true
		return nil
	}
	if in.metadata.Equal(p.Metadata) {
		return nil
	}
	if in.metadata.Type != p.Metadata.Type {
		return ErrIncompatibleMetadata
	}
	in.metadata = p.Metadata
	return nil
}

// UpdateMetadata applies the same rule as the Push-time update but is
// exposed for modules that re-derive a packet's metadata themselves before
// handing it to Pop's caller. It reports whether the input's metadata
// changed as a result, and a non-nil error if the packet's stream type is
// incompatible with the input's current one.
func (in *Input) UpdateMetadata(p *packet.Packet) (changed bool, err error) {
	if p.IsNull() {
		return false, nil
	}
	in.metaMu.Lock()
	before := in.metadata
	hadMeta := in.hasMeta
	in.metaMu.Unlock()

	if err := in.updateMetadataFrom(p); err != nil {
		return false, err
	}

	in.metaMu.RLock()
	defer in.metaMu.RUnlock()
	return !hadMeta || !before.Equal(in.metadata), nil
}
