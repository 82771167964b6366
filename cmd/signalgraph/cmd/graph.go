package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/pipeline"
	"github.com/jmylchreest/signalgraph/internal/dataflow/registry"
	"github.com/jmylchreest/signalgraph/internal/dataflow/stubmodules"
)

// graphSpec is the YAML description of a demo pipeline: named module
// instances and the edges connecting their ports. Each node's config is
// decoded straight into the module package's own Config struct (none of
// which carry yaml tags), so keys must match the struct's field name
// lowercased with no separators, e.g. "framerateden" for FrameRateDen.
type graphSpec struct {
	Nodes []nodeSpec `yaml:"nodes"`
	Edges []edgeSpec `yaml:"edges"`
}

type nodeSpec struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Config yaml.Node `yaml:"config"`
}

type edgeSpec struct {
	From     string `yaml:"from"`
	FromPort int    `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   int    `yaml:"to_port"`
}

func loadGraphSpec(path string) (*graphSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	var gs graphSpec
	if err := yaml.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("parsing graph file: %w", err)
	}
	if len(gs.Nodes) == 0 {
		return nil, fmt.Errorf("graph file declares no nodes")
	}
	return &gs, nil
}

// rawAudioConfig mirrors stubmodules.AudioConfig but carries Layout as a
// human-readable string ("mono", "stereo", "5.1") instead of the numeric
// packet.AudioLayout enum, decoded and converted by decodeModuleConfig.
type rawAudioConfig struct {
	SampleRate      int
	NumChannels     int
	Layout          string
	SamplesPerFrame int
	ToneHz          float64
	NumFrames       int
}

func audioLayoutFromString(s string) (packet.AudioLayout, error) {
	switch s {
	case "", "mono":
		return packet.LayoutMono, nil
	case "stereo":
		return packet.LayoutStereo, nil
	case "5.1", "surround51":
		return packet.LayoutFivePointOne, nil
	default:
		return 0, fmt.Errorf("unknown audio layout %q (want mono, stereo, or 5.1)", s)
	}
}

// decodeModuleConfig decodes n's config block into the registry.Config
// value the named module type expects. Module types with no config
// (ts_probe_stub) ignore an empty or absent block.
func decodeModuleConfig(n nodeSpec) (registry.Config, error) {
	hasConfig := n.Config.Kind != 0

	switch n.Type {
	case "synthetic_video_source":
		var cfg stubmodules.VideoConfig
		if hasConfig {
			if err := n.Config.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("node %q: decoding video config: %w", n.Name, err)
			}
		}
		return cfg, nil

	case "synthetic_audio_source":
		var raw rawAudioConfig
		if hasConfig {
			if err := n.Config.Decode(&raw); err != nil {
				return nil, fmt.Errorf("node %q: decoding audio config: %w", n.Name, err)
			}
		}
		layout, err := audioLayoutFromString(raw.Layout)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		return stubmodules.AudioConfig{
			SampleRate:      raw.SampleRate,
			NumChannels:     raw.NumChannels,
			Layout:          layout,
			SamplesPerFrame: raw.SamplesPerFrame,
			ToneHz:          raw.ToneHz,
			NumFrames:       raw.NumFrames,
		}, nil

	case "synthetic_segment_source":
		var cfg stubmodules.SegmentConfig
		if hasConfig {
			if err := n.Config.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("node %q: decoding segment config: %w", n.Name, err)
			}
		}
		return cfg, nil

	case "passthrough_mux_stub":
		// StreamType defaults to H.264 inside NewPassthroughMuxStub when
		// left at its zero value; the demo graph never needs to override it.
		return stubmodules.PassthroughMuxConfig{}, nil

	case "ts_probe_stub":
		return nil, nil

	case "file_sink_stub":
		var cfg stubmodules.FileSinkConfig
		if hasConfig {
			if err := n.Config.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("node %q: decoding file sink config: %w", n.Name, err)
			}
		}
		return cfg, nil

	default:
		return nil, fmt.Errorf("node %q: unknown module type %q", n.Name, n.Type)
	}
}

// buildPipeline instantiates every node via the registry and wires every
// edge. It returns the assembled pipeline alongside a name->Module lookup,
// since Pipeline itself exposes no way to retrieve a module it already
// owns — callers that need to drive modules directly (see runCmd) keep
// their own reference at construction time.
func buildPipeline(gs *graphSpec, logger *slog.Logger) (*pipeline.Pipeline, map[string]module.Module, error) {
	p := pipeline.New(logger)
	mods := make(map[string]module.Module, len(gs.Nodes))

	for _, n := range gs.Nodes {
		name := n.Name
		host := module.NewSlogHost(logger, name, func(active bool) {
			p.SetActive(name, active)
		})
		cfg, err := decodeModuleConfig(n)
		if err != nil {
			return nil, nil, err
		}
		mod, err := registry.Default.Instantiate(n.Type, host, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("instantiating node %q: %w", n.Name, err)
		}
		if err := p.AddModule(n.Name, mod); err != nil {
			return nil, nil, err
		}
		mods[n.Name] = mod
	}

	for _, e := range gs.Edges {
		if err := p.Connect(e.From, e.FromPort, e.To, e.ToPort, false); err != nil {
			return nil, nil, fmt.Errorf("connecting %s->%s: %w", e.From, e.To, err)
		}
	}

	return p, mods, nil
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect a dataflow graph description",
}

var graphDumpCmd = &cobra.Command{
	Use:   "dump <graph.yaml>",
	Short: "Build a graph from file and print it as graphviz",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		gs, err := loadGraphSpec(args[0])
		if err != nil {
			return err
		}
		p, _, err := buildPipeline(gs, slog.Default())
		if err != nil {
			return err
		}
		fmt.Println(p.Dump())
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphDumpCmd)
	rootCmd.AddCommand(graphCmd)
}
