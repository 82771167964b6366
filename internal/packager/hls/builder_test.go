package hls

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/packager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoSnapshot(idx int, segNum int) packager.QualitySnapshot {
	return packager.QualitySnapshot{
		Index:           idx,
		Info:            packager.QualityInfo{Type: packet.VideoPkt, Width: 1280, Height: 720, Codec: "avc1.64001f"},
		Prefix:          "v_0_1280x720/",
		AvgBitrateBps:   2_000_000,
		LastMeta:        packet.Metadata{DurationTicks: 1_080_000},
		InitName:        "v_0_1280x720/-init.mp4",
		MediaTemplate:   "v_0_1280x720/-$Number$.m4s",
		LastSegmentName: segName("v_0_1280x720/", segNum),
	}
}

func segName(prefix string, n int) string {
	return prefix + "-" + itoaHelper(n) + ".m4s"
}

func itoaHelper(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestBuilderBuildFilesProducesOneMediaPlaylistPerQualityPlusMaster(t *testing.T) {
	b := NewBuilder(nil, "master.m3u8")
	state := packager.ManifestState{
		Live:              true,
		SegDurationMs:     6000,
		StartTimeInMs:     0,
		TotalDurationInMs: 0,
		Qualities:         []packager.QualitySnapshot{videoSnapshot(0, 0)},
	}

	files := b.BuildFiles(state)
	require.Len(t, files, 2)

	names := map[string][]byte{}
	for _, f := range files {
		names[f.Name] = f.Contents
	}
	require.Contains(t, names, "master.m3u8")
	require.Contains(t, names, "v_0_1280x720/_.m3u8")

	master := string(names["master.m3u8"])
	assert.Contains(t, master, "#EXT-X-VERSION:7")
	assert.Contains(t, master, "v_0_1280x720/_.m3u8")

	media := string(names["v_0_1280x720/_.m3u8"])
	assert.Contains(t, media, `#EXT-X-MAP:URI="v_0_1280x720/-init.mp4"`)
	assert.Contains(t, media, "v_0_1280x720/-0.m4s")
}

func TestBuilderAccumulatesSegmentsAcrossCalls(t *testing.T) {
	b := NewBuilder(nil, "master.m3u8")

	state1 := packager.ManifestState{
		Live: true, SegDurationMs: 6000,
		Qualities: []packager.QualitySnapshot{videoSnapshot(0, 0)},
	}
	b.BuildFiles(state1)

	state2 := packager.ManifestState{
		Live: true, SegDurationMs: 6000, TotalDurationInMs: 6000,
		Qualities: []packager.QualitySnapshot{videoSnapshot(0, 1)},
	}
	files := b.BuildFiles(state2)

	var media string
	for _, f := range files {
		if f.Name == "v_0_1280x720/_.m3u8" {
			media = string(f.Contents)
		}
	}
	require.NotEmpty(t, media)
	assert.Contains(t, media, "v_0_1280x720/-0.m4s")
	assert.Contains(t, media, "v_0_1280x720/-1.m4s")
	assert.Contains(t, media, "#EXT-X-MEDIA-SEQUENCE:0")
}

func TestBuilderFinalWriteSetsEndList(t *testing.T) {
	b := NewBuilder(nil, "master.m3u8")
	state := packager.ManifestState{
		Live: false, SegDurationMs: 6000,
		Qualities: []packager.QualitySnapshot{videoSnapshot(0, 0)},
	}
	files := b.BuildFiles(state)

	var media string
	for _, f := range files {
		if f.Name == "v_0_1280x720/_.m3u8" {
			media = string(f.Contents)
		}
	}
	assert.Contains(t, media, "#EXT-X-ENDLIST")
}
