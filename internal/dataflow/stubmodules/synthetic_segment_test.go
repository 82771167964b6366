package stubmodules

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSegmentSourceEmitsConfiguredSegmentCountThenNull(t *testing.T) {
	host := module.NewSlogHost(nil, "segment-source", nil)
	src := NewSyntheticSegmentSource(host, SegmentConfig{NumSegments: 3})

	var received []*packet.Packet
	src.Output(0).GetSignal().Connect(func(p *packet.Packet) error {
		received = append(received, p)
		return nil
	})

	require.NoError(t, src.Process())

	require.Len(t, received, 4) // 3 segments + null terminator
	for i := 0; i < 3; i++ {
		assert.False(t, received[i].IsNull())
		assert.Equal(t, packet.Segment, received[i].Metadata.Type)
		assert.NotEmpty(t, received[i].Metadata.Filename)
	}
	assert.True(t, received[3].IsNull())
}

func TestSyntheticSegmentSourceChainsIntoMuxAndProbe(t *testing.T) {
	host := module.NewSlogHost(nil, "chain", nil)
	src := NewSyntheticSegmentSource(host, SegmentConfig{NumSegments: 1})
	mux := NewPassthroughMuxStub(host, PassthroughMuxConfig{})
	probe := NewTsProbeStub(host)

	src.Output(0).GetSignal().Connect(mux.Input(0).Push)

	var muxed []*packet.Packet
	mux.Output(0).GetSignal().Connect(func(p *packet.Packet) error {
		muxed = append(muxed, p)
		return nil
	})
	require.NoError(t, src.Process())
	require.NoError(t, mux.Process())
	require.NoError(t, mux.Process())
	require.Len(t, muxed, 2) // 1 segment + null

	for _, p := range muxed {
		probe.Input(0).Push(p)
	}
	var probed []*packet.Packet
	probe.Output(0).GetSignal().Connect(func(p *packet.Packet) error {
		probed = append(probed, p)
		return nil
	})
	require.NoError(t, probe.Process())
	require.NoError(t, probe.Process())

	require.Len(t, probed, 2)
	assert.Equal(t, "h264", probed[0].Metadata.CodecName)
	assert.True(t, probed[1].IsNull())
}
