package hls

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/packager"
)

const audioGroupID = "audio"

// qualityState accumulates one quality's segment history across successive
// BuildFiles calls, mirroring Apple_HLS's persistent HLSQuality::segments.
type qualityState struct {
	segments    []Segment
	firstSegNum uint64
	sawFirst    bool
}

// Builder implements packager.ManifestBuilder and
// packager.MultiFileManifestBuilder, producing a master playlist plus one
// media playlist per quality.
type Builder struct {
	logger     *slog.Logger
	masterName string

	mu        sync.Mutex
	version   int
	isCMAF    bool
	byQuality map[int]*qualityState
}

// NewBuilder creates a Builder. masterName defaults to "master.m3u8".
func NewBuilder(logger *slog.Logger, masterName string) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if masterName == "" {
		masterName = "master.m3u8"
	}
	return &Builder{logger: logger, masterName: masterName, byQuality: map[int]*qualityState{}}
}

var (
	_ packager.ManifestBuilder          = (*Builder)(nil)
	_ packager.MultiFileManifestBuilder = (*Builder)(nil)
)

// Build satisfies packager.ManifestBuilder by returning the master playlist
// alone; the Engine prefers BuildFiles when available.
func (b *Builder) Build(state packager.ManifestState) []byte {
	for _, f := range b.BuildFiles(state) {
		if f.Name == b.masterName {
			return f.Contents
		}
	}
	return nil
}

// BuildFiles satisfies packager.MultiFileManifestBuilder.
func (b *Builder) BuildFiles(state packager.ManifestState) []packager.ManifestFile {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.detectVersion(state)

	var audioSpec *packager.QualitySnapshot
	for i := range state.Qualities {
		q := &state.Qualities[i]
		if q.Info.Type != packet.AudioPkt {
			continue
		}
		if audioSpec != nil {
			b.logger.Warn("hls: multiple audio qualities in CMAF mode not supported, ignoring extra", "index", q.Index)
			continue
		}
		audioSpec = q
	}

	master := MasterPlaylist{Version: b.version, IndependentSegments: b.isCMAF}
	if audioSpec != nil && b.isCMAF {
		master.AudioRenditions = append(master.AudioRenditions, AudioRendition{
			GroupID: audioGroupID, Name: "Main", Language: "en", URI: variantPlaylistName(audioSpec.Prefix),
		})
	}

	var files []packager.ManifestFile
	for i := range state.Qualities {
		q := &state.Qualities[i]
		files = append(files, b.buildMediaPlaylist(state, q))

		if q.Info.Type == packet.AudioPkt && b.isCMAF {
			continue // folded into the video variant's AUDIO group below
		}

		bandwidth := q.AvgBitrateBps
		if audioSpec != nil && b.isCMAF && q.Info.Type == packet.VideoPkt {
			bandwidth += audioSpec.AvgBitrateBps
		}
		v := Variant{Bandwidth: bandwidth, Codecs: q.Info.Codec, URI: variantPlaylistName(q.Prefix)}
		if q.Info.Type == packet.VideoPkt && b.isCMAF && audioSpec != nil {
			v.AudioGroupID = audioGroupID
		}
		if q.Info.Width > 0 {
			v.Resolution = fmt.Sprintf("%dx%d", q.Info.Width, q.Info.Height)
		}
		master.Variants = append(master.Variants, v)
	}

	files = append(files, packager.ManifestFile{Name: b.masterName, Contents: []byte(SerializeMaster(master))})
	return files
}

// detectVersion infers the playlist version and CMAF-ness from the first
// quality's media template extension, matching the original's "ext == m4s"
// check (done once, the first time any quality is seen).
func (b *Builder) detectVersion(state packager.ManifestState) {
	if b.version != 0 {
		return
	}
	for _, q := range state.Qualities {
		if q.MediaTemplate == "" {
			continue
		}
		if strings.HasSuffix(q.MediaTemplate, ".m4s") {
			b.version = 7
			b.isCMAF = true
		} else {
			b.version = 3
		}
		return
	}
}

func (b *Builder) buildMediaPlaylist(state packager.ManifestState, q *packager.QualitySnapshot) packager.ManifestFile {
	qs, ok := b.byQuality[q.Index]
	if !ok {
		qs = &qualityState{}
		b.byQuality[q.Index] = qs
	}

	if q.LastSegmentName != "" && q.LastMeta.DurationTicks > 0 {
		seg := Segment{
			DurationSeconds:   float64(state.SegDurationMs) / 1000.0,
			ProgramDateTimeMs: state.StartTimeInMs + state.TotalDurationInMs,
			URI:               q.LastSegmentName,
		}
		if last := len(qs.segments) - 1; last < 0 || qs.segments[last].URI != seg.URI {
			qs.segments = append(qs.segments, seg)
			if !qs.sawFirst {
				qs.firstSegNum = segNumFromName(seg.URI)
				qs.sawFirst = true
			}
		}
	}

	if state.TimeShiftBufferDepthMs > 0 {
		pruneTimeShift(qs, state.TimeShiftBufferDepthMs, state.StartTimeInMs+state.TotalDurationInMs)
	}

	playlist := MediaPlaylist{
		Version:               b.version,
		TargetDurationSeconds: int64(state.SegDurationMs+500) / 1000,
		MediaSequence:         qs.firstSegNum,
		IndependentSegments:   b.version >= 6,
		EventType:             state.Live && state.TimeShiftBufferDepthMs == 0,
		EndList:               !state.Live,
		Segments:              append([]Segment(nil), qs.segments...),
	}
	if b.isCMAF {
		playlist.MapURI = q.InitName
	}
	if !state.Live {
		for i := range playlist.Segments {
			playlist.Segments[i].ProgramDateTimeMs = 0
		}
	}

	return packager.ManifestFile{Name: variantPlaylistName(q.Prefix), Contents: []byte(SerializeMedia(playlist))}
}

// pruneTimeShift drops segments older than depth relative to nowMs, matching
// the original's erase loop over HLSQuality::segments.
func pruneTimeShift(qs *qualityState, depthMs, nowMs int64) {
	kept := qs.segments[:0:0]
	for _, seg := range qs.segments {
		if seg.ProgramDateTimeMs+depthMs < nowMs {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) > 0 {
		qs.firstSegNum = segNumFromName(kept[0].URI)
	}
	qs.segments = kept
}

// variantPlaylistName derives a variant playlist filename from a quality's
// segment-name prefix, e.g. "v_0_1280x720" -> "v_0_1280x720_.m3u8".
func variantPlaylistName(prefix string) string {
	return prefix + "_.m3u8"
}

// segNumFromName extracts the trailing "-<n>." segment number from a
// segment filename, used as EXT-X-MEDIA-SEQUENCE for the oldest kept entry.
func segNumFromName(name string) uint64 {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		dot = len(name)
	}
	dash := strings.LastIndexByte(name[:dot], '-')
	if dash < 0 {
		return 0
	}
	n, err := strconv.ParseUint(name[dash+1:dot], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
