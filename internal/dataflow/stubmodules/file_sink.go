package stubmodules

import (
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/storage"
)

// FileSinkConfig configures a FileSinkStub.
type FileSinkConfig struct {
	// BaseDir is the sandbox root all filenames are written relative to.
	BaseDir string
}

// FileSinkStub writes every received packet's bytes to a file named by
// its metadata, sandboxed under BaseDir. It is the terminal module the
// CLI `run` command wires the packager's segment/manifest outputs into;
// its unit tests run it against a t.TempDir()-backed sandbox.
type FileSinkStub struct {
	module.SingleInput

	host    module.Host
	sandbox *storage.Sandbox
}

// NewFileSinkStub creates a FileSinkStub rooted at cfg.BaseDir, creating
// the directory if necessary.
func NewFileSinkStub(host module.Host, cfg FileSinkConfig) (*FileSinkStub, error) {
	sandbox, err := storage.NewSandbox(cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	f := &FileSinkStub{host: host, sandbox: sandbox}
	f.AddInput(nil)
	f.ProcessOne = f.write
	return f, nil
}

func (f *FileSinkStub) write(p *packet.Packet) error {
	if p.IsNull() {
		return nil
	}
	defer p.Release()

	// A delete sentinel (see packager.Engine's time-shift pruning) asks
	// for removal rather than a write.
	if p.Metadata.Type == packet.Segment && p.Metadata.FileSize == deleteSentinelSize {
		return f.sandbox.Remove(p.Metadata.Filename)
	}

	if err := f.sandbox.AtomicWrite(p.Metadata.Filename, p.Payload.Bytes()); err != nil {
		return err
	}
	f.host.Log(module.Debug, "wrote segment to sandbox", "filename", p.Metadata.Filename, "bytes", len(p.Payload.Bytes()))
	return nil
}

// deleteSentinelSize mirrors packager.Engine's math.MaxInt64 FileSize
// convention for a delete-this-segment packet, duplicated here rather
// than imported to avoid a dependency from dataflow (a lower layer) on
// packager (a higher one).
const deleteSentinelSize = ^uint64(0) >> 1
