// Package dash builds and serializes the DASH MPD manifest model (C11) for
// the adaptive-streaming packager. Serialization follows the teacher's
// xmltv writer style: streaming fmt.Fprintf calls with a local escaper,
// never a whole-document xml.Marshal, so element order and formatting stay
// under direct control.
package dash

import (
	"fmt"

	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/packager"
)

// Representation is one quality's DASH representation entry.
type Representation struct {
	ID               string
	Bandwidth        uint64
	MimeType         string
	Codecs           string
	StartWithSAP     bool
	AudioSamplingRate int
	Width, Height    int
	Initialization   string
	Media            string
}

// AdaptationSet groups representations of the same content type under one
// SegmentTemplate.
type AdaptationSet struct {
	ContentType        string
	Duration           uint64
	Timescale          int
	StartNumber        int64
	SegmentAlignment   bool
	BitstreamSwitching bool
	Representations    []Representation
}

// Period is one DASH Period, currently always a single fixed period (no
// multi-period authoring in this packager).
type Period struct {
	ID             string
	AdaptationSets []AdaptationSet
}

// MPD is the full manifest model, built fresh on every writeManifest call.
type MPD struct {
	Dynamic                   bool
	Profiles                  string
	ID                        string
	MinBufferTimeMs           int64
	MediaPresentationDurationMs int64
	AvailabilityStartTimeMs   int64
	PublishTimeMs             int64
	MinimumUpdatePeriodMs     int64
	TimeShiftBufferDepthMs    int64
	BaseURLs                  []string
	Periods                   []Period
}

const (
	dashTimescale = 1000
	profiles      = "urn:mpeg:dash:profile:isoff-live:2011, http://dashif.org/guidelines/dash264"
	periodName    = "1"
)

// Builder implements packager.ManifestBuilder, turning an engine snapshot
// into an MPD document.
type Builder struct{}

var _ packager.ManifestBuilder = Builder{}

// Build satisfies packager.ManifestBuilder.
func (Builder) Build(state packager.ManifestState) []byte {
	mpd := MPD{
		Dynamic:                     state.Live,
		Profiles:                    profiles,
		ID:                          "id",
		MediaPresentationDurationMs: state.TotalDurationInMs + int64(state.SegDurationMs),
		AvailabilityStartTimeMs:     int64(state.SegDurationMs),
		MinBufferTimeMs:             minBufferTime(state.Live),
		MinimumUpdatePeriodMs:       minUpdatePeriod(state),
	}

	byType := map[string]*AdaptationSet{}
	var order []string
	for _, q := range state.Qualities {
		if !q.LastMeta.EOS && q.LastMeta.DurationTicks == 0 && q.AvgBitrateBps == 0 {
			continue
		}
		key := contentType(q.Info.Type)
		as, ok := byType[key]
		if !ok {
			as = &AdaptationSet{
				ContentType:        key,
				Duration:           state.SegDurationIn180k,
				Timescale:          dashTimescale,
				SegmentAlignment:   true,
				BitstreamSwitching: true,
				StartNumber:        state.StartTimeInMs / int64(max64(state.SegDurationMs, 1)),
			}
			byType[key] = as
			order = append(order, key)
		}
		rep := Representation{
			ID:             fmt.Sprintf("%d", q.Index),
			Bandwidth:      q.AvgBitrateBps,
			MimeType:       q.Info.MimeType,
			Codecs:         q.Info.Codec,
			StartWithSAP:   true,
			Initialization: q.InitName,
			Media:          q.MediaTemplate,
		}
		switch q.Info.Type {
		case packet.AudioPkt:
			rep.AudioSamplingRate = q.Info.SampleRate
		case packet.VideoPkt:
			rep.Width, rep.Height = q.Info.Width, q.Info.Height
		}
		as.Representations = append(as.Representations, rep)
	}

	period := Period{ID: periodName}
	for _, key := range order {
		period.AdaptationSets = append(period.AdaptationSets, *byType[key])
	}
	mpd.Periods = append(mpd.Periods, period)

	return []byte(Serialize(mpd))
}

func minBufferTime(live bool) int64 {
	if live {
		return 2000
	}
	return 3000
}

func minUpdatePeriod(state packager.ManifestState) int64 {
	if state.SegDurationMs > 0 {
		return int64(state.SegDurationMs)
	}
	return 1000
}

func contentType(t packet.StreamType) string {
	switch t {
	case packet.AudioPkt:
		return "audio"
	case packet.VideoPkt:
		return "video"
	case packet.SubtitlePkt:
		return "text"
	default:
		return "application"
	}
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
