package stubmodules

import (
	"fmt"

	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/jmylchreest/signalgraph/internal/dataflow/registry"
)

func init() {
	registry.Default.MustRegister("synthetic_video_source", func(host module.Host, cfg registry.Config) (module.Module, error) {
		c, ok := cfg.(VideoConfig)
		if !ok {
			return nil, fmt.Errorf("stubmodules: synthetic_video_source expects VideoConfig, got %T", cfg)
		}
		return NewSyntheticVideoSource(host, c), nil
	})

	registry.Default.MustRegister("synthetic_audio_source", func(host module.Host, cfg registry.Config) (module.Module, error) {
		c, ok := cfg.(AudioConfig)
		if !ok {
			return nil, fmt.Errorf("stubmodules: synthetic_audio_source expects AudioConfig, got %T", cfg)
		}
		return NewSyntheticAudioSource(host, c), nil
	})

	registry.Default.MustRegister("synthetic_segment_source", func(host module.Host, cfg registry.Config) (module.Module, error) {
		c, _ := cfg.(SegmentConfig)
		return NewSyntheticSegmentSource(host, c), nil
	})

	registry.Default.MustRegister("passthrough_mux_stub", func(host module.Host, cfg registry.Config) (module.Module, error) {
		c, _ := cfg.(PassthroughMuxConfig)
		return NewPassthroughMuxStub(host, c), nil
	})

	registry.Default.MustRegister("ts_probe_stub", func(host module.Host, cfg registry.Config) (module.Module, error) {
		return NewTsProbeStub(host), nil
	})

	registry.Default.MustRegister("file_sink_stub", func(host module.Host, cfg registry.Config) (module.Module, error) {
		c, ok := cfg.(FileSinkConfig)
		if !ok {
			return nil, fmt.Errorf("stubmodules: file_sink_stub expects FileSinkConfig, got %T", cfg)
		}
		return NewFileSinkStub(host, c)
	})
}
