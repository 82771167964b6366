package stubmodules

import (
	"math"

	"github.com/jmylchreest/signalgraph/internal/dataflow/allocator"
	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// AudioConfig configures a SyntheticAudioSource.
type AudioConfig struct {
	SampleRate      int
	NumChannels     int
	Layout          packet.AudioLayout
	SamplesPerFrame int
	ToneHz          float64
	// NumFrames is the number of PCM frames to emit before EOS. Zero
	// means unbounded.
	NumFrames int
}

// SyntheticAudioSource is an active module that emits interleaved S16 PCM
// packets carrying a pure sine tone, standing in for a decoded audio
// source.
type SyntheticAudioSource struct {
	module.Active

	host module.Host
	cfg  AudioConfig
	pool *allocator.Pool
	out  *port.Output

	format    packet.PCMFormat
	frameIdx  int
	sampleIdx int64
	posted    bool
}

// NewSyntheticAudioSource creates a source emitting interleaved S16 PCM
// frames of cfg.SamplesPerFrame samples at cfg.SampleRate.
func NewSyntheticAudioSource(host module.Host, cfg AudioConfig) *SyntheticAudioSource {
	if cfg.SamplesPerFrame == 0 {
		cfg.SamplesPerFrame = 1024
	}
	if cfg.ToneHz == 0 {
		cfg.ToneHz = 440
	}
	format := packet.PCMFormat{
		SampleRate:   cfg.SampleRate,
		NumChannels:  cfg.NumChannels,
		Layout:       cfg.Layout,
		SampleFormat: packet.SampleS16,
		Planar:       false,
	}
	frameSize := cfg.SamplesPerFrame * format.BytesPerSample()
	s := &SyntheticAudioSource{
		host:   host,
		cfg:    cfg,
		pool:   allocator.NewPool(4, frameSize, frameSize),
		format: format,
	}
	s.out = s.AddOutput(port.NewOutput(s.pool, nil))
	s.out.SetMetadata(packet.Metadata{
		Type:         packet.AudioRaw,
		SampleRate:   uint32(cfg.SampleRate),
		NumChannels:  uint32(cfg.NumChannels),
		Layout:       cfg.Layout,
		SampleFormat: packet.SampleS16,
	})
	s.Work = s.generateFrame
	host.Activate(true)
	return s
}

func (s *SyntheticAudioSource) generateFrame() (bool, error) {
	if s.cfg.NumFrames > 0 && s.frameIdx >= s.cfg.NumFrames {
		if !s.posted {
			if _, err := s.out.Post(packet.Null()); err != nil {
				return false, err
			}
			s.posted = true
		}
		return false, nil
	}

	h := s.pool.Alloc(s.cfg.SamplesPerFrame * s.format.BytesPerSample())
	if h == nil {
		return false, nil
	}
	pcm, err := packet.NewPCM(h.Bytes, s.format, s.cfg.SamplesPerFrame, h.Release)
	if err != nil {
		return false, err
	}
	s.fillSineWave(pcm)

	meta := packet.Metadata{
		Type:         packet.AudioRaw,
		SampleRate:   uint32(s.cfg.SampleRate),
		NumChannels:  uint32(s.cfg.NumChannels),
		Layout:       s.cfg.Layout,
		SampleFormat: packet.SampleS16,
	}
	p := packet.New(pcm, meta)
	pts := clock.NewFraction(int64(s.frameIdx)*int64(s.cfg.SamplesPerFrame), int64(s.cfg.SampleRate))
	p = p.WithAttrs(p.Attrs.WithPresentationTime(pts))
	if _, err := s.out.Post(p); err != nil {
		return false, err
	}

	s.frameIdx++
	return true, nil
}

// fillSineWave writes an interleaved S16 sine tone into every channel of
// pcm, continuous across frame boundaries via s.sampleIdx.
func (s *SyntheticAudioSource) fillSineWave(pcm *packet.PCM) {
	buf := pcm.Plane(0)
	channels := s.cfg.NumChannels
	if channels == 0 {
		channels = 1
	}
	for n := 0; n < s.cfg.SamplesPerFrame; n++ {
		angle := 2 * math.Pi * s.cfg.ToneHz * float64(s.sampleIdx) / float64(s.cfg.SampleRate)
		v := int16(math.Sin(angle) * 0.5 * math.MaxInt16)
		for c := 0; c < channels; c++ {
			off := (n*channels + c) * 2
			buf[off] = byte(v)
			buf[off+1] = byte(v >> 8)
		}
		s.sampleIdx++
	}
}
