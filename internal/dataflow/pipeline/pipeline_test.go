package pipeline

import (
	"testing"
	"time"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// source emits a fixed number of packets then posts null on its single
// output and notifies the pipeline it is done.
type source struct {
	module.Active
	pipe    *Pipeline
	name    string
	remaining int
}

func newSource(p *Pipeline, name string, count int) *source {
	s := &source{pipe: p, name: name, remaining: count}
	s.AddOutput(port.NewOutput(nil, nil))
	s.Output(0).SetMetadata(packet.NewRawVideo())
	s.Work = s.work
	return s
}

func (s *source) work() (bool, error) {
	if s.remaining == 0 {
		s.Output(0).Post(packet.Null())
		s.pipe.NotifyTerminated(s.name)
		return false, nil
	}
	s.remaining--
	s.Output(0).Post(packet.New(packet.NewRaw([]byte{byte(s.remaining)}, nil), packet.NewRawVideo()))
	return true, nil
}

// sink counts received packets and notifies the pipeline on null.
type sink struct {
	module.SingleInput
	pipe     *Pipeline
	name     string
	received int
}

func newSink(p *Pipeline, name string) *sink {
	sk := &sink{pipe: p, name: name}
	sk.AddInput(nil)
	sk.ProcessOne = sk.processOne
	return sk
}

func (sk *sink) processOne(p *packet.Packet) error {
	if p.IsNull() {
		sk.pipe.NotifyTerminated(sk.name)
		return nil
	}
	sk.received++
	return nil
}

func TestPipelineRunsSourceToSink(t *testing.T) {
	p := New(nil)
	src := newSource(p, "src", 5)
	snk := newSink(p, "snk")

	require.NoError(t, p.AddModule("src", src))
	require.NoError(t, p.AddModule("snk", snk))
	p.SetActive("src", true)
	p.SetActive("snk", true)

	require.NoError(t, p.Connect("src", 0, "snk", 0, false))

	p.Start()

	done := make(chan error, 1)
	go func() { done <- p.WaitForCompletion() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not complete in time")
	}

	assert.Equal(t, 5, snk.received)
}

func TestPipelineRemoveModuleFailsWhileConnected(t *testing.T) {
	p := New(nil)
	src := newSource(p, "src", 0)
	snk := newSink(p, "snk")
	require.NoError(t, p.AddModule("src", src))
	require.NoError(t, p.AddModule("snk", snk))
	require.NoError(t, p.Connect("src", 0, "snk", 0, false))

	err := p.RemoveModule("src")
	require.Error(t, err)
}

func TestPipelineDisconnectMissingEdgeFails(t *testing.T) {
	p := New(nil)
	src := newSource(p, "src", 0)
	snk := newSink(p, "snk")
	require.NoError(t, p.AddModule("src", src))
	require.NoError(t, p.AddModule("snk", snk))

	err := p.Disconnect("src", 0, "snk", 0)
	require.Error(t, err)
}

func TestPipelineDumpIncludesNodesAndEdges(t *testing.T) {
	p := New(nil)
	src := newSource(p, "src", 0)
	snk := newSink(p, "snk")
	require.NoError(t, p.AddModule("src", src))
	require.NoError(t, p.AddModule("snk", snk))
	require.NoError(t, p.Connect("src", 0, "snk", 0, false))

	dot := p.Dump()
	assert.Contains(t, dot, "\"src\"")
	assert.Contains(t, dot, "\"snk\"")
	assert.Contains(t, dot, "src\" -> \"snk\"")
}

// module.Active/SingleInput require the embedding struct to also satisfy
// module.Module (Process is provided by the embedded helper; this is a
// compile-time assertion the wiring above actually produces a Module).
var (
	_ module.Module = (*source)(nil)
	_ module.Module = (*sink)(nil)
)
