package stubmodules

import (
	"bytes"
	"context"

	"github.com/asticode/go-astits"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

const (
	muxVideoPID uint16 = 0x100
	muxPESStreamID byte = 0xe0
)

// PassthroughMuxConfig configures a PassthroughMuxStub.
type PassthroughMuxConfig struct {
	// StreamType is the MPEG-TS stream type tag for the elementary
	// stream. Defaults to H.264 video.
	StreamType astits.StreamType
}

// PassthroughMuxStub wraps each received Raw packet's bytes in a minimal
// valid MPEG-TS container (PAT/PMT plus one PES-wrapped payload) using
// go-astits, rather than implementing a real encoder. It gives the
// packager a byte-accurate segment container to work with without needing
// a codec.
type PassthroughMuxStub struct {
	module.SingleInput

	host module.Host
	cfg  PassthroughMuxConfig
	out  *port.Output
}

// NewPassthroughMuxStub creates a PassthroughMuxStub.
func NewPassthroughMuxStub(host module.Host, cfg PassthroughMuxConfig) *PassthroughMuxStub {
	if cfg.StreamType == 0 {
		cfg.StreamType = astits.StreamTypeH264Video
	}
	m := &PassthroughMuxStub{host: host, cfg: cfg}
	m.AddInput(nil)
	m.out = m.AddOutput(port.NewOutput(nil, nil))
	m.ProcessOne = m.mux
	return m
}

func (m *PassthroughMuxStub) mux(p *packet.Packet) error {
	if p.IsNull() {
		_, err := m.out.Post(p)
		return err
	}
	defer p.Release()

	var buf bytes.Buffer
	muxer := astits.NewMuxer(context.Background(), &buf)
	if err := muxer.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: muxVideoPID,
		StreamType:    m.cfg.StreamType,
	}); err != nil {
		return err
	}
	muxer.SetPCRPID(muxVideoPID)
	if _, err := muxer.WriteTables(); err != nil {
		return err
	}
	if _, err := muxer.WriteData(&astits.MuxerData{
		PID: muxVideoPID,
		PES: &astits.PESData{
			Header: &astits.PESHeader{StreamID: muxPESStreamID},
			Data:   p.Payload.Bytes(),
		},
	}); err != nil {
		return err
	}

	out := packet.New(packet.NewRaw(buf.Bytes(), nil), p.Metadata)
	out = out.WithAttrs(p.Attrs)
	if _, err := m.out.Post(out); err != nil {
		return err
	}
	m.host.Log(module.Debug, "muxed segment into ts container", "bytes", buf.Len())
	return nil
}
