package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/stubmodules"
)

const demoGraph = `
nodes:
  - name: segments
    type: synthetic_segment_source
    config:
      numsegments: 2
  - name: mux
    type: passthrough_mux_stub
  - name: probe
    type: ts_probe_stub
  - name: sink
    type: file_sink_stub
    config:
      basedir: BASEDIR
edges:
  - from: segments
    from_port: 0
    to: mux
    to_port: 0
  - from: mux
    from_port: 0
    to: probe
    to_port: 0
  - from: probe
    from_port: 0
    to: sink
    to_port: 0
`

func writeGraphFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGraphSpecParsesNodesAndEdges(t *testing.T) {
	path := writeGraphFile(t, demoGraph)

	gs, err := loadGraphSpec(path)
	require.NoError(t, err)
	require.Len(t, gs.Nodes, 4)
	require.Len(t, gs.Edges, 3)
	assert.Equal(t, "segments", gs.Nodes[0].Name)
	assert.Equal(t, "synthetic_segment_source", gs.Nodes[0].Type)
	assert.Equal(t, "mux", gs.Edges[0].To)
}

func TestLoadGraphSpecRejectsEmptyNodeList(t *testing.T) {
	path := writeGraphFile(t, "nodes: []\n")

	_, err := loadGraphSpec(path)
	assert.Error(t, err)
}

func TestDecodeModuleConfigDecodesEachStubType(t *testing.T) {
	path := writeGraphFile(t, demoGraph)
	gs, err := loadGraphSpec(path)
	require.NoError(t, err)

	segCfg, err := decodeModuleConfig(gs.Nodes[0])
	require.NoError(t, err)
	assert.Equal(t, stubmodules.SegmentConfig{NumSegments: 2}, segCfg)

	muxCfg, err := decodeModuleConfig(gs.Nodes[1])
	require.NoError(t, err)
	assert.Equal(t, stubmodules.PassthroughMuxConfig{}, muxCfg)

	probeCfg, err := decodeModuleConfig(gs.Nodes[2])
	require.NoError(t, err)
	assert.Nil(t, probeCfg)

	sinkCfg, err := decodeModuleConfig(gs.Nodes[3])
	require.NoError(t, err)
	assert.Equal(t, stubmodules.FileSinkConfig{BaseDir: "BASEDIR"}, sinkCfg)
}

func TestDecodeModuleConfigRejectsUnknownType(t *testing.T) {
	path := writeGraphFile(t, "nodes:\n  - name: x\n    type: nonexistent\n")
	gs, err := loadGraphSpec(path)
	require.NoError(t, err)

	_, err = decodeModuleConfig(gs.Nodes[0])
	assert.Error(t, err)
}

func TestAudioLayoutFromString(t *testing.T) {
	cases := map[string]packet.AudioLayout{
		"":       packet.LayoutMono,
		"mono":   packet.LayoutMono,
		"stereo": packet.LayoutStereo,
		"5.1":    packet.LayoutFivePointOne,
	}
	for input, want := range cases {
		got, err := audioLayoutFromString(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := audioLayoutFromString("quad")
	assert.Error(t, err)
}

func TestBuildPipelineWiresDemoGraphEndToEnd(t *testing.T) {
	sandboxDir := t.TempDir()
	path := writeGraphFile(t, strings.ReplaceAll(demoGraph, "BASEDIR", sandboxDir))

	gs, err := loadGraphSpec(path)
	require.NoError(t, err)

	p, mods, err := buildPipeline(gs, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, mods, 4)

	dump := p.Dump()
	assert.Contains(t, dump, "segments")
	assert.Contains(t, dump, "sink")
}
