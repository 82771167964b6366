package packet

import "fmt"

// PCMFormat describes the sample layout of a PCM payload: rate, channel
// count/layout, sample encoding, and whether channels are planar
// (one buffer per channel) or interleaved (channels packed per frame).
type PCMFormat struct {
	SampleRate   int
	NumChannels  int
	Layout       AudioLayout
	SampleFormat AudioSampleFormat
	Planar       bool
}

// BytesPerSample returns the per-channel-frame byte size (all channels).
func (f PCMFormat) BytesPerSample() int {
	b := 1
	switch f.SampleFormat {
	case SampleS16:
		b = 2
	case SampleF32:
		b = 4
	}
	return b * f.NumChannels
}

// SampleWidth returns the byte size of a single sample on a single
// channel, independent of channel count or interleaving.
func (f PCMFormat) SampleWidth() int {
	switch f.SampleFormat {
	case SampleS16:
		return 2
	case SampleF32:
		return 4
	default:
		return 1
	}
}

// NumPlanes returns 1 for interleaved, NumChannels for planar — exported
// so callers outside the package (the rectifier's sample-copy logic) can
// size per-plane buffers without reimplementing the Planar/NumChannels
// rule.
func (f PCMFormat) NumPlanes() int {
	return f.numPlanes()
}

// numPlanes returns 1 for interleaved, NumChannels for planar.
func (f PCMFormat) numPlanes() int {
	if f.Planar {
		return f.NumChannels
	}
	return 1
}

// PCM is the planar-or-interleaved audio payload variant. Resizing is
// forbidden once sample count is set, matching the original framework's
// "you cannot resize PCM data" invariant; the sample count is fixed at
// construction via NewPCM.
type PCM struct {
	buf        []byte
	onRelease  func()
	format     PCMFormat
	sampleCount int
}

// NewPCM allocates a PCM payload for sampleCount samples in the given
// format. buf must be at least sampleCount*format.BytesPerSample() bytes.
func NewPCM(buf []byte, format PCMFormat, sampleCount int, onRelease func()) (*PCM, error) {
	need := sampleCount * format.BytesPerSample()
	if len(buf) < need {
		return nil, fmt.Errorf("packet: pcm buffer too small: have %d need %d", len(buf), need)
	}
	return &PCM{buf: buf, onRelease: onRelease, format: format, sampleCount: sampleCount}, nil
}

// Bytes implements Payload.
func (p *PCM) Bytes() []byte { return p.buf }

// Recyclable implements Payload.
func (p *PCM) Recyclable() bool { return p.onRelease != nil }

func (p *PCM) release() {
	if p.onRelease != nil {
		p.onRelease()
	}
}

// Format returns the PCM format.
func (p *PCM) Format() PCMFormat { return p.format }

// SampleCount returns the number of samples (per channel) this payload
// carries.
func (p *PCM) SampleCount() int { return p.sampleCount }

// PlaneSize returns the byte size of a single plane.
func (p *PCM) PlaneSize() int {
	return p.sampleCount * p.format.BytesPerSample() / p.format.numPlanes()
}

// Plane returns the byte slice for channel/plane i. For interleaved
// formats, i must be 0 and the slice contains all channels.
func (p *PCM) Plane(i int) []byte {
	n := p.format.numPlanes()
	if i < 0 || i >= n {
		return nil
	}
	size := p.PlaneSize()
	return p.buf[i*size : (i+1)*size]
}
