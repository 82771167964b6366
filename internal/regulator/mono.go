// Package regulator implements time-aligned packet pacing against a
// clock: a single-stream passive variant (Mono) and an N-stream dynamic
// dispatch variant (Multi). Neither alters the packets it paces.
package regulator

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// MonoConfig tunes a Mono regulator's discontinuity tolerances, per
// spec §4.7.
type MonoConfig struct {
	ForwardTolerance  clock.Fraction
	BackwardTolerance clock.Fraction
}

// DefaultMonoConfig returns the spec's suggested tolerances: forward ~20s,
// backward ~6s.
func DefaultMonoConfig() MonoConfig {
	return MonoConfig{
		ForwardTolerance:  clock.NewFraction(20, 1),
		BackwardTolerance: clock.NewFraction(6, 1),
	}
}

// Mono paces a single stream against a Clock: on each packet it computes
// delay = DecodingTime − clock.now() − offset, sleeps if the packet is
// early, and re-anchors its offset on a discontinuity larger than the
// configured tolerance.
type Mono struct {
	clock  clock.Clock
	cfg    MonoConfig
	logger *slog.Logger

	offset clock.Fraction
	sleep  func(d time.Duration)
}

// NewMono creates a Mono regulator paced against c.
func NewMono(c clock.Clock, cfg MonoConfig, logger *slog.Logger) *Mono {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mono{clock: c, cfg: cfg, logger: logger, sleep: time.Sleep}
}

// Regulate blocks until p's decoding time is due, re-anchoring on a
// discontinuity, then returns p unmodified for the caller to emit.
func (m *Mono) Regulate(p *packet.Packet) *packet.Packet {
	if p.IsNull() {
		return p
	}
	dt, ok := p.Attrs.DecodingTime()
	if !ok {
		return p
	}

	for {
		now := m.clock.Now()
		delay := dt.Sub(now).Sub(m.offset)
		delaySec := delay.Seconds()

		if delaySec > m.cfg.ForwardTolerance.Seconds() {
			m.logger.Info("forward discontinuity", "delay_s", delaySec)
			m.offset = m.offset.Add(delay)
			continue
		}
		if delaySec < -m.cfg.BackwardTolerance.Seconds() {
			m.logger.Info("backward discontinuity", "delay_s", delaySec)
			m.offset = m.offset.Add(delay)
			continue
		}

		switch {
		case delaySec > 0:
			m.sleep(time.Duration(delaySec * float64(time.Second)))
		case delaySec < 0:
			m.logger.Warn("late data", "decoding_time", dt.Seconds(), "delay_s", delaySec)
		}
		return p
	}
}
