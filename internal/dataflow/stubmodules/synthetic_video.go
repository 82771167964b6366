// Package stubmodules provides synthetic source, passthrough, and sink
// modules that exercise the dataflow runtime end-to-end without a real
// video/audio codec: a deterministic pixel generator standing in for a
// decoder, a minimal MPEG-TS wrapper standing in for a muxer, and a
// sandboxed file sink standing in for whatever a real output module would
// write.
package stubmodules

import (
	"github.com/jmylchreest/signalgraph/internal/dataflow/allocator"
	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// VideoConfig configures a SyntheticVideoSource.
type VideoConfig struct {
	Width, Height int
	FrameRateNum  int64
	FrameRateDen  int64
	// NumFrames is the number of frames to emit before posting EOS. Zero
	// means unbounded (runs until the pipeline is torn down).
	NumFrames int
}

// SyntheticVideoSource is an active module that emits raw I420 video
// packets at a configured resolution and framerate, the pixel values
// deterministically derived from the frame index so tests can assert on
// frame content without decoding anything.
type SyntheticVideoSource struct {
	module.Active

	host module.Host
	cfg  VideoConfig
	pool *allocator.Pool
	out  *port.Output

	frameIdx int
	posted   bool
}

// NewSyntheticVideoSource creates a source emitting cfg.Width x cfg.Height
// I420 frames. host is used for logging and activation; pool sizes each
// frame's backing buffer.
func NewSyntheticVideoSource(host module.Host, cfg VideoConfig) *SyntheticVideoSource {
	if cfg.FrameRateNum == 0 {
		cfg.FrameRateNum, cfg.FrameRateDen = 25, 1
	}
	frameSize := packet.PictureSize(cfg.Width, cfg.Height, packet.PixelI420) + 16
	s := &SyntheticVideoSource{
		host: host,
		cfg:  cfg,
		pool: allocator.NewPool(4, frameSize, frameSize),
	}
	s.out = s.AddOutput(port.NewOutput(s.pool, nil))
	s.out.SetMetadata(packet.Metadata{
		Type:         packet.VideoRaw,
		Width:        cfg.Width,
		Height:       cfg.Height,
		PixelFormat:  packet.PixelI420,
		FrameRateNum: cfg.FrameRateNum,
		FrameRateDen: cfg.FrameRateDen,
	})
	s.Work = s.generateFrame
	host.Activate(true)
	return s
}

// generateFrame produces one frame per call, returning false once
// cfg.NumFrames have been emitted (if bounded), after posting the null
// terminator.
func (s *SyntheticVideoSource) generateFrame() (bool, error) {
	if s.cfg.NumFrames > 0 && s.frameIdx >= s.cfg.NumFrames {
		if !s.posted {
			if _, err := s.out.Post(packet.Null()); err != nil {
				return false, err
			}
			s.posted = true
		}
		return false, nil
	}

	h := s.pool.Alloc(packet.PictureSize(s.cfg.Width, s.cfg.Height, packet.PixelI420) + 16)
	if h == nil {
		return false, nil
	}
	pic, err := packet.NewPicture(h.Bytes, s.cfg.Width, s.cfg.Height, s.cfg.Width, s.cfg.Height, packet.PixelI420, h.Release)
	if err != nil {
		return false, err
	}
	fillSyntheticFrame(pic, s.frameIdx)

	meta := packet.Metadata{
		Type:         packet.VideoRaw,
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		PixelFormat:  packet.PixelI420,
		FrameRateNum: s.cfg.FrameRateNum,
		FrameRateDen: s.cfg.FrameRateDen,
	}
	p := packet.New(pic, meta)
	pts := clock.NewFraction(int64(s.frameIdx)*s.cfg.FrameRateDen, s.cfg.FrameRateNum)
	p = p.WithAttrs(p.Attrs.WithPresentationTime(pts))
	if _, err := s.out.Post(p); err != nil {
		return false, err
	}

	s.frameIdx++
	s.host.Log(module.Debug, "synthetic video frame posted", "index", s.frameIdx)
	return true, nil
}

// fillSyntheticFrame writes a deterministic pattern into every plane: the
// luma plane ramps with frame index, the chroma planes are flat mid-grey.
func fillSyntheticFrame(pic *packet.Picture, frameIdx int) {
	y := pic.Plane(0)
	fill := byte(frameIdx % 256)
	for i := range y {
		y[i] = fill
	}
	for plane := 1; plane < pic.NumPlanes(); plane++ {
		c := pic.Plane(plane)
		for i := range c {
			c[i] = 128
		}
	}
}
