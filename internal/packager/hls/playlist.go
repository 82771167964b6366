// Package hls builds and serializes HLS master and media playlists (C11)
// for the adaptive-streaming packager, grounded on the original framework's
// Apple_HLS writer: one master playlist plus one media playlist per
// quality, each posted as its own manifest document.
package hls

// Segment is one media-playlist entry.
type Segment struct {
	DurationSeconds   float64
	ProgramDateTimeMs int64 // 0 means omit EXT-X-PROGRAM-DATE-TIME (VOD)
	URI               string
}

// MediaPlaylist is one quality's variant playlist.
type MediaPlaylist struct {
	Version               int
	TargetDurationSeconds int64
	MediaSequence         uint64
	IndependentSegments   bool
	MapURI                string // EXT-X-MAP URI; empty omits the tag (non-CMAF)
	EventType             bool   // EXT-X-PLAYLIST-TYPE:EVENT
	EndList               bool   // EXT-X-ENDLIST, set on the final write
	Segments              []Segment
}

// AudioRendition is one EXT-X-MEDIA:TYPE=AUDIO entry in the master playlist.
type AudioRendition struct {
	GroupID  string
	Name     string
	Language string
	URI      string
}

// Variant is one EXT-X-STREAM-INF entry in the master playlist.
type Variant struct {
	Bandwidth    uint64
	Codecs       string
	Resolution   string // "WxH"; empty for audio-only variants
	AudioGroupID string
	URI          string
}

// MasterPlaylist is the top-level playlist referencing every variant.
type MasterPlaylist struct {
	Version             int
	IndependentSegments bool
	AudioRenditions     []AudioRendition
	Variants            []Variant
}
