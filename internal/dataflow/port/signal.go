// Package port implements typed connection points (Output/Input) and the
// fan-out signal dispatch and connect-time metadata negotiation that wire
// them together.
package port

import (
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// Receiver is a connected input's delivery callback, invoked once per
// packet posted to the output it is subscribed to. A non-nil error means
// the receiving input rejected the packet (e.g. ErrIncompatibleMetadata)
// and did not enqueue it.
type Receiver func(p *packet.Packet) error

// Signal is an ordered multicast dispatcher: each receiver registered via
// Connect is invoked, in registration order, on every Emit call. Dispatch
// is synchronous on the emitter's goroutine, per spec §4.3.
type Signal struct {
	mu        sync.RWMutex
	receivers []Receiver
}

// Connect registers r to receive future Emit calls and returns an index
// usable with Disconnect.
func (s *Signal) Connect(r Receiver) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers = append(s.receivers, r)
	return len(s.receivers) - 1
}

// Disconnect removes the receiver registered at idx. It leaves a nil hole
// rather than shifting indices, so concurrently held indices stay valid.
func (s *Signal) Disconnect(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.receivers) {
		return
	}
	s.receivers[idx] = nil
}

// Emit dispatches p to every connected receiver and returns how many
// received it, plus the first error any receiver returned. Dispatch
// continues to every receiver even after one errors, preserving the
// ordered-multicast contract; the caller surfaces the error rather than
// assuming every receiver got a consistent view of p.
func (s *Signal) Emit(p *packet.Packet) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	var firstErr error
	for _, r := range s.receivers {
		if r == nil {
			continue
		}
		if err := r(p); err != nil && firstErr == nil {
			firstErr = err
		}
		n++
	}
	return n, firstErr
}

// NumReceivers returns the number of currently connected receivers.
func (s *Signal) NumReceivers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.receivers {
		if r != nil {
			n++
		}
	}
	return n
}
