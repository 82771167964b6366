package rectifier

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVideoPacket() *packet.Packet {
	return packet.New(packet.NewRaw([]byte{0}, nil), packet.NewRawVideo())
}

func audioFormat() packet.PCMFormat {
	return packet.PCMFormat{SampleRate: 44100, NumChannels: 1, SampleFormat: packet.SampleS16}
}

func newAudioPacket(t *testing.T, format packet.PCMFormat, sampleCount int) *packet.Packet {
	t.Helper()
	buf := make([]byte, sampleCount*format.BytesPerSample())
	pcm, err := packet.NewPCM(buf, format, sampleCount, nil)
	require.NoError(t, err)
	return packet.New(pcm, packet.NewRawAudio())
}

// TestRectifierPassthrough25fps covers spec Scenario A: a 25fps master with
// matching 25fps audio chunking passes through one-for-one, with output
// mediaTime exactly k*framePeriod and total audio samples conserved.
func TestRectifierPassthrough25fps(t *testing.T) {
	const totalFrames = 150
	framePeriod := clock.NewFraction(1, 25)
	format := audioFormat()
	samplesPerFrame := 44100 / 25 // 1764, exact

	vc := clock.NewVirtualClock()

	var masterTimes []clock.Fraction
	var audioSamples int

	rect := New(Config{FramePeriod: framePeriod}, vc, nil, func(streamID string, p *packet.Packet) {
		switch streamID {
		case "":
			pt, ok := p.Attrs.PresentationTime()
			require.True(t, ok)
			masterTimes = append(masterTimes, pt)
		case "audio":
			pcm := p.Payload.(*packet.PCM)
			audioSamples += pcm.SampleCount()
		}
	})
	rect.AddAudioStream("audio", format)

	for k := 0; k < totalFrames; k++ {
		mediaTime := clock.NewFraction(int64(k), 25)
		rect.PushMaster(newVideoPacket(), mediaTime)
		rect.PushAudio("audio", newAudioPacket(t, format, samplesPerFrame), mediaTime)

		vc.Advance(framePeriod)
		ok := rect.Tick()
		require.True(t, ok, "tick %d should have a master frame", k)
	}

	require.Len(t, masterTimes, totalFrames)
	for k, pt := range masterTimes {
		expected := clock.NewFraction(int64(k), 25)
		assert.InDelta(t, expected.Seconds(), pt.Seconds(), 1e-9, "frame %d mediaTime", k)
	}
	for i := 1; i < len(masterTimes); i++ {
		assert.True(t, masterTimes[i-1].Less(masterTimes[i]), "output mediaTime must be strictly monotonic at index %d", i)
	}

	assert.Equal(t, totalFrames*samplesPerFrame, audioSamples)
}

// TestRectifierUpsample25to30000over1001 covers spec Scenario B: a 25fps
// master driven at the faster 30000/1001 output tick rate produces strictly
// periodic output timestamps k*framePeriod regardless of input cadence,
// reusing the freshest master frame between arrivals.
func TestRectifierUpsample25to30000over1001(t *testing.T) {
	const totalInFrames = 150
	const totalOutTicks = 180 // ceil(150 * (30000/1001) / 25)

	outPeriod := clock.NewFraction(1001, 30000)

	vc := clock.NewVirtualClock()
	var outTimes []clock.Fraction

	rect := New(Config{FramePeriod: outPeriod}, vc, nil, func(streamID string, p *packet.Packet) {
		if streamID == "" {
			pt, ok := p.Attrs.PresentationTime()
			require.True(t, ok)
			outTimes = append(outTimes, pt)
		}
	})

	nextIn := 0
	for tick := 0; tick < totalOutTicks; tick++ {
		now := vc.Now()
		for nextIn < totalInFrames && clock.NewFraction(int64(nextIn), 25).Seconds() <= now.Seconds()+1e-9 {
			rect.PushMaster(newVideoPacket(), clock.NewFraction(int64(nextIn), 25))
			nextIn++
		}
		ok := rect.Tick()
		require.True(t, ok, "tick %d should have a master frame", tick)
		vc.Advance(outPeriod)
	}

	require.Len(t, outTimes, totalOutTicks)
	for k, pt := range outTimes {
		expected := clock.NewFraction(int64(k)*outPeriod.Num, outPeriod.Den)
		assert.InDelta(t, expected.Seconds(), pt.Seconds(), 1e-9, "output tick %d mediaTime", k)
	}
	for i := 1; i < len(outTimes); i++ {
		assert.True(t, outTimes[i-1].Less(outTimes[i]), "output mediaTime must be strictly monotonic at index %d", i)
	}
}

// TestRectifierSkipsTickWithNoMasterYet ensures a tick before any master
// frame has arrived is skipped entirely rather than emitting a blank.
func TestRectifierSkipsTickWithNoMasterYet(t *testing.T) {
	vc := clock.NewVirtualClock()
	rect := New(Config{FramePeriod: clock.NewFraction(1, 25)}, vc, nil, func(string, *packet.Packet) {
		t.Fatal("must not emit before a master frame exists")
	})
	ok := rect.Tick()
	assert.False(t, ok)
}

// TestRectifierReusesLastMasterOnStarvation exercises the blank-frame reuse
// path once the master queue has drained but a prior frame exists.
func TestRectifierReusesLastMasterOnStarvation(t *testing.T) {
	vc := clock.NewVirtualClock()
	framePeriod := clock.NewFraction(1, 25)
	var emitted int

	rect := New(Config{FramePeriod: framePeriod}, vc, nil, func(streamID string, p *packet.Packet) {
		if streamID == "" {
			emitted++
		}
	})

	rect.PushMaster(newVideoPacket(), clock.NewFraction(0, 25))
	vc.Advance(framePeriod)
	require.True(t, rect.Tick())

	// No further master frames pushed: the next several ticks must still
	// succeed by reusing the last known master.
	for i := 0; i < 5; i++ {
		vc.Advance(framePeriod)
		require.True(t, rect.Tick())
	}
	assert.Equal(t, 6, emitted)
}
