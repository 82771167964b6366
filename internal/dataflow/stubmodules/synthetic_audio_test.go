package stubmodules

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticAudioSourceEmitsConfiguredFrameCountThenNull(t *testing.T) {
	host := module.NewSlogHost(nil, "audio-source", nil)
	src := NewSyntheticAudioSource(host, AudioConfig{
		SampleRate:      48000,
		NumChannels:     2,
		Layout:          packet.LayoutStereo,
		SamplesPerFrame: 256,
		NumFrames:       2,
	})

	var received []*packet.Packet
	src.Output(0).GetSignal().Connect(func(p *packet.Packet) error {
		received = append(received, p)
		return nil
	})

	require.NoError(t, src.Process())

	require.Len(t, received, 3) // 2 frames + null
	assert.False(t, received[0].IsNull())
	assert.Equal(t, packet.AudioRaw, received[0].Metadata.Type)
	assert.True(t, received[2].IsNull())
}

func TestSyntheticAudioSourcePCMHasConfiguredSampleCount(t *testing.T) {
	host := module.NewSlogHost(nil, "audio-source", nil)
	src := NewSyntheticAudioSource(host, AudioConfig{
		SampleRate:      44100,
		NumChannels:     1,
		Layout:          packet.LayoutMono,
		SamplesPerFrame: 128,
		NumFrames:       1,
	})

	var got *packet.Packet
	src.Output(0).GetSignal().Connect(func(p *packet.Packet) error {
		if !p.IsNull() {
			got = p
		}
		return nil
	})

	require.NoError(t, src.Process())
	require.NotNil(t, got)

	pcm, ok := got.Payload.(*packet.PCM)
	require.True(t, ok)
	assert.Equal(t, 128, pcm.SampleCount())
}
