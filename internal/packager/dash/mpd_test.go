package dash

import (
	"strings"
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/packager"
	"github.com/stretchr/testify/assert"
)

func TestBuilderGroupsQualitiesByContentType(t *testing.T) {
	state := packager.ManifestState{
		Live:              true,
		SegDurationMs:     4000,
		TotalDurationInMs: 12000,
		SegDurationIn180k: 720000,
		Qualities: []packager.QualitySnapshot{
			{
				Index: 0,
				Info:  packager.QualityInfo{Type: packet.VideoPkt, Width: 1280, Height: 720, Codec: "avc1.64001f", MimeType: "video/mp4"},
				AvgBitrateBps: 2_000_000,
				LastMeta:      packet.Metadata{EOS: false, DurationTicks: 720000},
				InitName:      "v_0_1280x720/-init.mp4",
				MediaTemplate: "v_0_1280x720/-$Number$.m4s",
			},
			{
				Index: 1,
				Info:  packager.QualityInfo{Type: packet.AudioPkt, SampleRate: 44100, Codec: "mp4a.40.2", MimeType: "audio/mp4"},
				AvgBitrateBps: 128_000,
				LastMeta:      packet.Metadata{EOS: false, DurationTicks: 720000},
				InitName:      "a_1/-init.mp4",
				MediaTemplate: "a_1/-$Number$.m4s",
			},
		},
	}

	out := string(Builder{}.Build(state))

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `type="dynamic"`)
	assert.Contains(t, out, `contentType="video"`)
	assert.Contains(t, out, `contentType="audio"`)
	assert.Contains(t, out, `width="1280" height="720"`)
	assert.Contains(t, out, `audioSamplingRate="44100"`)
	assert.Contains(t, out, `bandwidth="2000000"`)
	assert.Contains(t, out, `media="a_1/-$Number$.m4s"`)
}

func TestBuilderStaticForVOD(t *testing.T) {
	state := packager.ManifestState{
		Live:              false,
		SegDurationMs:     4000,
		TotalDurationInMs: 8000,
		Qualities: []packager.QualitySnapshot{
			{
				Index:         0,
				Info:          packager.QualityInfo{Type: packet.VideoPkt, Width: 640, Height: 360, MimeType: "video/mp4"},
				AvgBitrateBps: 800_000,
				LastMeta:      packet.Metadata{EOS: true, DurationTicks: 720000},
				InitName:      "v_0_640x360/-init.mp4",
				MediaTemplate: "v_0_640x360/-$Number$.m4s",
			},
		},
	}

	out := string(Builder{}.Build(state))

	assert.Contains(t, out, `type="static"`)
	assert.Contains(t, out, "mediaPresentationDuration=")
	assert.NotContains(t, out, "availabilityStartTime")
}

func TestIsoDurationWholeAndFractionalSeconds(t *testing.T) {
	assert.Equal(t, "PT4S", isoDuration(4000))
	assert.Equal(t, "PT1.500S", isoDuration(1500))
}
