package stubmodules

import (
	"math"
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkStubWritesPacketBytesUnderSandbox(t *testing.T) {
	host := module.NewSlogHost(nil, "sink", nil)
	sink, err := NewFileSinkStub(host, FileSinkConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	p := packet.New(packet.NewRaw([]byte("segment-data"), nil),
		packet.NewSegment("v_0/seg-1.m4s", "video/mp4", "avc1.64001f", 180000, 12, true, false))
	sink.Input(0).Push(p)

	require.NoError(t, sink.Process())

	data, err := sink.sandbox.ReadFile("v_0/seg-1.m4s")
	require.NoError(t, err)
	assert.Equal(t, "segment-data", string(data))
}

func TestFileSinkStubRemovesOnDeleteSentinel(t *testing.T) {
	base := t.TempDir()
	host := module.NewSlogHost(nil, "sink", nil)
	sink, err := NewFileSinkStub(host, FileSinkConfig{BaseDir: base})
	require.NoError(t, err)

	write := packet.New(packet.NewRaw([]byte("data"), nil),
		packet.NewSegment("v_0/seg-1.m4s", "video/mp4", "avc1.64001f", 180000, 4, true, false))
	sink.Input(0).Push(write)
	require.NoError(t, sink.Process())

	del := packet.New(packet.NewRaw(nil, nil),
		packet.NewSegment("v_0/seg-1.m4s", "video/mp4", "avc1.64001f", 180000, math.MaxInt64, true, false))
	sink.Input(0).Push(del)
	require.NoError(t, sink.Process())

	exists, err := sink.sandbox.Exists("v_0/seg-1.m4s")
	require.NoError(t, err)
	assert.False(t, exists)
}
