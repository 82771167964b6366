package regulator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// MultiConfig tunes a Multi regulator's dispatch predicates, per spec
// §4.7. Both delays default to ~3s.
type MultiConfig struct {
	MaxMediaDelay clock.Fraction // stream-relative: how far behind the lead stream before dispatch
	MaxClockDelay clock.Fraction // absolute: how long a packet may sit queued before forced dispatch
}

// DefaultMultiConfig returns the spec's suggested 3-second delays.
func DefaultMultiConfig() MultiConfig {
	return MultiConfig{
		MaxMediaDelay: clock.NewFraction(3, 1),
		MaxClockDelay: clock.NewFraction(3, 1),
	}
}

type queuedPacket struct {
	creationTime clock.Fraction
	packet       *packet.Packet
}

// Multi paces N streams against each other and a real clock: a packet
// dispatches once it is stream-relatively stale (behind the most-advanced
// stream by more than MaxMediaDelay) or has been queued longer than
// MaxClockDelay in absolute clock time.
type Multi struct {
	clock  clock.Clock
	cfg    MultiConfig
	logger *slog.Logger
	onReady func(streamID string, p *packet.Packet)

	mu                sync.Mutex
	queues            map[string][]queuedPacket
	maxSeenDecodingTime clock.Fraction
	haveSeenDecoding    bool
}

// NewMulti creates a Multi regulator. onReady is invoked (synchronously,
// under the regulator's lock) whenever a packet is dispatched — the
// dataflow runtime wires this to the corresponding output's Post.
func NewMulti(c clock.Clock, cfg MultiConfig, logger *slog.Logger, onReady func(streamID string, p *packet.Packet)) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{
		clock:   c,
		cfg:     cfg,
		logger:  logger,
		onReady: onReady,
		queues:  make(map[string][]queuedPacket),
	}
}

// Push enqueues p for streamID and evaluates the dispatch predicates for
// every stream's head, dispatching any that are ready.
func (m *Multi) Push(streamID string, p *packet.Packet) {
	if p.IsNull() {
		m.dispatch(streamID, p)
		return
	}

	dt, hasDt := p.Attrs.DecodingTime()
	if !hasDt {
		// Declaration packets (metadata-only) forward immediately.
		m.dispatch(streamID, p)
		return
	}

	m.mu.Lock()
	if p.Metadata.Type.IsVideo() || p.Metadata.Type.IsAudio() {
		if !m.haveSeenDecoding || m.maxSeenDecodingTime.Less(dt) {
			m.maxSeenDecodingTime = dt
			m.haveSeenDecoding = true
		}
	}
	m.queues[streamID] = append(m.queues[streamID], queuedPacket{creationTime: m.clock.Now(), packet: p})
	m.mu.Unlock()

	m.evaluate()
}

// evaluate checks every stream's head packet against the two dispatch
// predicates and dispatches any that qualify. Streams where no packet
// qualifies are left queued for a future Push/Poll to reconsider.
func (m *Multi) evaluate() {
	for {
		id, p, ok := m.popReady()
		if !ok {
			return
		}
		m.deliver(id, p)
	}
}

func (m *Multi) popReady() (string, *packet.Packet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	for id, q := range m.queues {
		if len(q) == 0 {
			continue
		}
		head := q[0]
		dt, _ := head.packet.Attrs.DecodingTime()

		relativelyStale := m.haveSeenDecoding && dt.Seconds() < m.maxSeenDecodingTime.Seconds()-m.cfg.MaxMediaDelay.Seconds()
		queuedTooLong := now.Seconds()-head.creationTime.Seconds() > m.cfg.MaxClockDelay.Seconds()

		if relativelyStale || queuedTooLong {
			m.queues[id] = q[1:]
			return id, head.packet, true
		}
	}
	return "", nil, false
}

func (m *Multi) deliver(streamID string, p *packet.Packet) {
	if m.onReady != nil {
		m.onReady(streamID, p)
	}
}

func (m *Multi) dispatch(streamID string, p *packet.Packet) {
	m.deliver(streamID, p)
}

// Poll re-evaluates dispatch predicates against wall-time progress even
// absent a new Push, so a stalled stream's queue drains once
// MaxClockDelay elapses. Callers typically invoke this from a scheduled
// tick (see clock.Scheduler).
func (m *Multi) Poll() {
	m.evaluate()
}

// WaitMaxClockDelay returns how long Poll should be scheduled out to
// guarantee no packet starves past MaxClockDelay, for callers wiring this
// regulator to a Scheduler.
func (m *Multi) WaitMaxClockDelay() time.Duration {
	return time.Duration(m.cfg.MaxClockDelay.Seconds() * float64(time.Second))
}
