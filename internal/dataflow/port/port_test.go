package port

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectForwardsOutputMetadata(t *testing.T) {
	out := NewOutput(nil, nil)
	out.SetMetadata(packet.NewRawVideo())
	in := NewInput(nil)

	_, err := Connect(out, in)
	require.NoError(t, err)

	m, ok := in.Metadata()
	require.True(t, ok)
	assert.Equal(t, packet.VideoRaw, m.Type)
}

func TestConnectBackPropagatesInputMetadata(t *testing.T) {
	out := NewOutput(nil, nil)
	in := NewInput(nil)
	in.SetMetadata(packet.NewRawAudio())

	_, err := Connect(out, in)
	require.NoError(t, err)

	m, ok := out.Metadata()
	require.True(t, ok)
	assert.Equal(t, packet.AudioRaw, m.Type)
}

func TestConnectRejectsIncompatibleTypes(t *testing.T) {
	out := NewOutput(nil, nil)
	out.SetMetadata(packet.NewRawVideo())
	in := NewInput(nil)
	in.SetMetadata(packet.NewRawAudio())

	_, err := Connect(out, in)
	require.ErrorIs(t, err, ErrIncompatibleMetadata)
}

func TestConnectKeepsBothWhenTypesMatch(t *testing.T) {
	out := NewOutput(nil, nil)
	out.SetMetadata(packet.NewPktVideo("avc1", 1920, 1080, packet.PixelI420))
	in := NewInput(nil)
	in.SetMetadata(packet.NewPktVideo("hvc1", 1280, 720, packet.PixelI420))

	_, err := Connect(out, in)
	require.NoError(t, err)

	m, _ := in.Metadata()
	assert.Equal(t, "hvc1", m.Codec, "keep-both: input's own metadata is untouched by connect")
}

func TestPostDeliversToConnectedInput(t *testing.T) {
	out := NewOutput(nil, nil)
	in := NewInput(nil)
	_, err := Connect(out, in)
	require.NoError(t, err)

	p := packet.New(packet.NewRaw([]byte{1, 2, 3}, nil), packet.NewRawVideo())
	n, err := out.Post(p)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := in.Pop()
	assert.Same(t, p, got)
}

func TestPostReportsIncompatibleMetadataWithoutPanicking(t *testing.T) {
	out := NewOutput(nil, nil)
	out.SetMetadata(packet.NewRawVideo())
	in := NewInput(nil)
	_, err := Connect(out, in)
	require.NoError(t, err)

	// Connect allowed this because in had no metadata yet; a later packet
	// declaring an incompatible stream type must be rejected by Push and
	// surfaced through Post's return, not by crashing the caller's
	// goroutine.
	mismatched := packet.New(packet.NewRaw(nil, nil), packet.NewRawAudio())
	n, err := out.Post(mismatched)
	require.ErrorIs(t, err, ErrIncompatibleMetadata)
	assert.Equal(t, 1, n, "Emit still counts the receiver even though it rejected the packet")
}

func TestInputUpdateMetadataOnStreamTypeMatch(t *testing.T) {
	in := NewInput(nil)
	in.SetMetadata(packet.NewPktVideo("avc1", 1920, 1080, packet.PixelI420))

	updated := packet.NewPktVideo("avc1.high", 1920, 1080, packet.PixelI420)
	p := packet.New(packet.NewRaw(nil, nil), updated)
	in.Push(p)

	m, _ := in.Metadata()
	assert.Equal(t, "avc1.high", m.Codec)
}

func TestInputPushThenPopFIFO(t *testing.T) {
	in := NewInput(nil)
	p1 := packet.New(packet.NewRaw([]byte{1}, nil), packet.NewRawVideo())
	p2 := packet.New(packet.NewRaw([]byte{2}, nil), packet.NewRawVideo())
	in.Push(p1)
	in.Push(p2)

	assert.Same(t, p1, in.Pop())
	assert.Same(t, p2, in.Pop())
}

func TestInputCloseUnblocksPop(t *testing.T) {
	in := NewInput(nil)
	done := make(chan *packet.Packet, 1)
	go func() { done <- in.Pop() }()

	in.Close()
	select {
	case p := <-done:
		assert.Nil(t, p)
	}
}
