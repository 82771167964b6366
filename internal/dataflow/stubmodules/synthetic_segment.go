package stubmodules

import (
	"fmt"

	"github.com/jmylchreest/signalgraph/internal/dataflow/allocator"
	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// SegmentConfig configures a SyntheticSegmentSource.
type SegmentConfig struct {
	// PayloadSize is the number of deterministic filler bytes each
	// segment's Raw payload carries. Defaults to 4 if zero.
	PayloadSize int
	// MimeType and CodecName tag each segment's Metadata, as a real
	// codec/segmenter stage would. Default to "video/mp2t"/"avc1.64001f".
	MimeType  string
	CodecName string
	// NumSegments is the number of segments to emit before posting EOS.
	// Zero means unbounded.
	NumSegments int
}

// SyntheticSegmentSource is an active module that emits Raw packets
// tagged with Segment metadata, standing in for whatever encoder and
// segmenter stage would normally hand PassthroughMuxStub a byte-accurate
// elementary stream segment. Nothing in this repo currently registers a
// real encoder/segmenter module, so this is what wires a bounded demo
// graph's source stage to the mux/probe/sink chain end to end.
type SyntheticSegmentSource struct {
	module.Active

	host module.Host
	cfg  SegmentConfig
	pool *allocator.Pool
	out  *port.Output

	segIdx int
	posted bool
}

// NewSyntheticSegmentSource creates a SyntheticSegmentSource.
func NewSyntheticSegmentSource(host module.Host, cfg SegmentConfig) *SyntheticSegmentSource {
	if cfg.PayloadSize == 0 {
		cfg.PayloadSize = 4
	}
	if cfg.MimeType == "" {
		cfg.MimeType = "video/mp2t"
	}
	if cfg.CodecName == "" {
		cfg.CodecName = "avc1.64001f"
	}
	s := &SyntheticSegmentSource{
		host: host,
		cfg:  cfg,
		pool: allocator.NewPool(4, cfg.PayloadSize, cfg.PayloadSize),
	}
	s.out = s.AddOutput(port.NewOutput(s.pool, nil))
	s.Work = s.generateSegment
	host.Activate(true)
	return s
}

// generateSegment produces one segment per call, returning false once
// cfg.NumSegments have been emitted (if bounded), after posting the null
// terminator.
func (s *SyntheticSegmentSource) generateSegment() (bool, error) {
	if s.cfg.NumSegments > 0 && s.segIdx >= s.cfg.NumSegments {
		if !s.posted {
			if _, err := s.out.Post(packet.Null()); err != nil {
				return false, err
			}
			s.posted = true
		}
		return false, nil
	}

	h := s.pool.Alloc(s.cfg.PayloadSize)
	if h == nil {
		return false, nil
	}
	for i := range h.Bytes {
		h.Bytes[i] = byte(s.segIdx + i)
	}

	filename := fmt.Sprintf("seg-%d.ts", s.segIdx)
	meta := packet.NewSegment(filename, s.cfg.MimeType, s.cfg.CodecName, 0, uint64(s.cfg.PayloadSize), s.segIdx == 0, false)
	p := packet.New(packet.NewRaw(h.Bytes, h.Release), meta)
	pts := clock.NewFraction(int64(s.segIdx), 1)
	p = p.WithAttrs(p.Attrs.WithPresentationTime(pts))
	if _, err := s.out.Post(p); err != nil {
		return false, err
	}

	s.host.Log(module.Debug, "synthetic segment posted", "filename", filename)
	s.segIdx++
	return true, nil
}
