package stubmodules

import (
	"bytes"
	"io"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/jmylchreest/signalgraph/internal/codec"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// TsProbeStub reads back the elementary stream tracks from a muxed TS
// buffer using mediacommon, closing the loop with PassthroughMuxStub for
// round-trip tests. It does not decode any media; it only confirms the
// container is well-formed and annotates the packet with what the
// demuxer found.
type TsProbeStub struct {
	module.SingleInput

	host module.Host
	out  *port.Output
}

// NewTsProbeStub creates a TsProbeStub.
func NewTsProbeStub(host module.Host) *TsProbeStub {
	t := &TsProbeStub{host: host}
	t.AddInput(nil)
	t.out = t.AddOutput(port.NewOutput(nil, nil))
	t.ProcessOne = t.probe
	return t
}

func (t *TsProbeStub) probe(p *packet.Packet) error {
	if p.IsNull() {
		_, err := t.out.Post(p)
		return err
	}
	defer p.Release()

	payload := p.Payload.Bytes()
	r := &mpegts.Reader{R: bytes.NewReader(payload)}
	if err := r.Initialize(); err != nil && err != io.EOF {
		return err
	}

	meta := p.Metadata
	for _, track := range r.Tracks() {
		switch track.Codec.(type) {
		case *mpegts.CodecH264:
			meta.CodecName = codec.VideoH264.String()
		case *mpegts.CodecH265:
			meta.CodecName = codec.VideoH265.String()
		case *mpegts.CodecMPEG4Audio:
			meta.CodecName = codec.AudioAAC.String()
		}
	}

	out := packet.New(packet.NewRaw(payload, nil), meta)
	out = out.WithAttrs(p.Attrs)
	if _, err := t.out.Post(out); err != nil {
		return err
	}
	t.host.Log(module.Debug, "ts probe detected tracks", "count", len(r.Tracks()))
	return nil
}
