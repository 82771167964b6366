package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/signalgraph/internal/dataflow/stubmodules"
)

var runGraphPath string

// runCmd builds a graph description and drives it to completion.
//
// The dataflow runtime's passive-module scheduling hook (port.Input's
// onPush) has no Host-level counterpart yet for requesting a process()
// call or announcing termination, so Pipeline.Start's goroutine-per-
// active-module model can't safely drive a passive stub chain to a
// deterministic stop. Instead run drives the graph manually: a bounded
// synthetic source's Process call drains every frame it will ever emit in
// one synchronous call (Signal.Emit dispatches on the caller's
// goroutine), so each downstream node's input queue is fully populated
// before the next node runs. Every stub module downstream of the source
// emits at most one output packet per input packet, so the same frame
// count carries through the whole chain.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a graph description to completion",
	Long: `run builds the graph described by --graph and drives it to completion
by calling each module's Process method directly, in declaration order.

The first node must be a bounded synthetic source (NumFrames/NumSegments
> 0); every other node must have exactly one input and consume whatever
the previous node in the file produces. This covers the demo chain the
bundled stub modules are built for: synthetic_segment_source ->
passthrough_mux_stub -> ts_probe_stub -> file_sink_stub.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if runGraphPath == "" {
			return exitErr("run: --graph is required")
		}
		gs, err := loadGraphSpec(runGraphPath)
		if err != nil {
			return err
		}

		logger := slog.Default()
		p, mods, err := buildPipeline(gs, logger)
		if err != nil {
			return err
		}
		_ = p // kept for Dump()/inspection parity; execution below is manual.

		frameCount, err := sourceFrameCount(gs.Nodes[0])
		if err != nil {
			return err
		}

		source := mods[gs.Nodes[0].Name]
		logger.Info("running source to completion", "node", gs.Nodes[0].Name, "frames", frameCount)
		if err := source.Process(); err != nil {
			return fmt.Errorf("node %q: %w", gs.Nodes[0].Name, err)
		}

		// Each downstream node receives frameCount packets (frameCount-1
		// data packets plus the null terminator) and, being single-input,
		// single-output passthrough stubs, emits exactly one packet per
		// Process call onward to the next node's queue.
		for _, n := range gs.Nodes[1:] {
			mod := mods[n.Name]
			logger.Info("draining node", "node", n.Name, "calls", frameCount)
			for i := 0; i < frameCount; i++ {
				if err := mod.Process(); err != nil {
					return fmt.Errorf("node %q: %w", n.Name, err)
				}
			}
		}

		logger.Info("run complete", "nodes", len(gs.Nodes))
		return nil
	},
}

// sourceFrameCount returns the number of Process-emitted packets (frame
// count plus the null terminator) the named source node will post,
// erroring if the node is missing, not a bounded source, or unbounded.
func sourceFrameCount(n nodeSpec) (int, error) {
	cfg, err := decodeModuleConfig(n)
	if err != nil {
		return 0, err
	}
	var numFrames int
	switch c := cfg.(type) {
	case stubmodules.VideoConfig:
		numFrames = c.NumFrames
	case stubmodules.AudioConfig:
		numFrames = c.NumFrames
	case stubmodules.SegmentConfig:
		numFrames = c.NumSegments
	default:
		return 0, fmt.Errorf("node %q: first node must be a bounded synthetic source (synthetic_video_source, synthetic_audio_source, or synthetic_segment_source), got %q", n.Name, n.Type)
	}
	if numFrames <= 0 {
		return 0, fmt.Errorf("node %q: run requires a bounded source (set numframes > 0)", n.Name)
	}
	return numFrames + 1, nil
}

func init() {
	runCmd.Flags().StringVar(&runGraphPath, "graph", "", "path to a graph description YAML file (required)")
	rootCmd.AddCommand(runCmd)
}
