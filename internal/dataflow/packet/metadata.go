// Package packet defines the reference-counted data packet and its typed
// stream metadata, the common currency passed between modules over ports.
package packet

import "fmt"

// StreamType tags the kind of payload a Metadata value describes. Two
// Metadata values are connect-compatible only if their StreamType matches.
type StreamType int

const (
	UnknownStream StreamType = iota - 1
	AudioRaw                 // uncompressed audio
	VideoRaw                 // uncompressed video
	AudioPkt                 // compressed audio
	VideoPkt                 // compressed video
	SubtitlePkt               // subtitles and captions
	Playlist                  // playlist and adaptive streaming manifests
	Segment                   // adaptive streaming init and media segments
)

func (t StreamType) String() string {
	switch t {
	case AudioRaw:
		return "AudioRaw"
	case VideoRaw:
		return "VideoRaw"
	case AudioPkt:
		return "AudioPkt"
	case VideoPkt:
		return "VideoPkt"
	case SubtitlePkt:
		return "SubtitlePkt"
	case Playlist:
		return "Playlist"
	case Segment:
		return "Segment"
	default:
		return "Unknown"
	}
}

// IsVideo reports whether t describes a video stream, raw or packetized.
func (t StreamType) IsVideo() bool { return t == VideoRaw || t == VideoPkt }

// IsAudio reports whether t describes an audio stream, raw or packetized.
func (t StreamType) IsAudio() bool { return t == AudioRaw || t == AudioPkt }

// IsSubtitle reports whether t describes a subtitle/caption stream.
func (t StreamType) IsSubtitle() bool { return t == SubtitlePkt }

// Metadata is the tagged-union description of a packet's stream. Exactly
// one of the embedded payload fields is meaningful, selected by Type.
// Two Metadata values are "compatible" (see port.Connect) iff their Type is
// equal.
type Metadata struct {
	Type StreamType

	// Packetized audio/video share these fields (MetadataPkt in the
	// original framework); populated when Type is AudioPkt or VideoPkt.
	Codec            string // RFC-6381 style codec name, kept as a string deliberately
	CodecSpecificInfo []byte
	Bitrate          int64 // -1 if not available
	TimeScaleNum     int64
	TimeScaleDen     int64

	// VideoPkt-only fields.
	PixelFormat         PixelFormat
	SampleAspectRatioNum int64
	SampleAspectRatioDen int64
	Width, Height        int
	FrameRateNum         int64
	FrameRateDen         int64

	// AudioPkt-only fields.
	NumChannels   uint32
	SampleRate    uint32
	BitsPerSample uint8
	FrameSize     uint32
	Planar        bool
	SampleFormat  AudioSampleFormat
	Layout        AudioLayout

	// Playlist/Segment fields (MetadataFile in the original framework).
	Filename      string
	MimeType      string
	CodecName     string // RFC 6381
	DurationTicks uint64 // in clock.Rate ticks
	FileSize      uint64
	LatencyTicks  uint64
	StartsWithRAP bool
	EOS           bool
}

// NewRawVideo builds Metadata for an uncompressed video stream.
func NewRawVideo() Metadata { return Metadata{Type: VideoRaw} }

// NewRawAudio builds Metadata for an uncompressed audio stream.
func NewRawAudio() Metadata { return Metadata{Type: AudioRaw} }

// NewPktVideo builds Metadata for a packetized (compressed) video stream.
func NewPktVideo(codec string, width, height int, pf PixelFormat) Metadata {
	return Metadata{
		Type:        VideoPkt,
		Codec:       codec,
		Bitrate:     -1,
		TimeScaleNum: 1,
		TimeScaleDen: 1,
		Width:       width,
		Height:      height,
		PixelFormat: pf,
	}
}

// NewPktAudio builds Metadata for a packetized (compressed) audio stream.
func NewPktAudio(codec string, sampleRate int, numChannels int, layout AudioLayout) Metadata {
	return Metadata{
		Type:         AudioPkt,
		Codec:        codec,
		Bitrate:      -1,
		TimeScaleNum: 1,
		TimeScaleDen: 1,
		SampleRate:   uint32(sampleRate),
		NumChannels:  uint32(numChannels),
		Layout:       layout,
	}
}

// NewSegment builds Metadata describing an adaptive-streaming init or media
// segment (durationTicks == 0 marks an init segment, per spec §4.9/§6).
func NewSegment(filename, mimeType, codecName string, durationTicks, fileSize uint64, startsWithRAP, eos bool) Metadata {
	return Metadata{
		Type:          Segment,
		Filename:      filename,
		MimeType:      mimeType,
		CodecName:     codecName,
		DurationTicks: durationTicks,
		FileSize:      fileSize,
		StartsWithRAP: startsWithRAP,
		EOS:           eos,
	}
}

// IsInitSegment reports whether this Segment metadata describes an init
// segment rather than a media segment, signalled by zero duration.
func (m Metadata) IsInitSegment() bool {
	return m.Type == Segment && m.DurationTicks == 0
}

// Compatible reports whether m and other may coexist on the same connected
// port pair: their stream types must match exactly.
func (m Metadata) Compatible(other Metadata) bool {
	return m.Type == other.Type
}

// Equal reports whether m and other carry the same metadata, used by
// Input to detect a runtime metadata change worth re-propagating. Field-
// by-field rather than ==, since CodecSpecificInfo is a slice and Go
// structs with slice fields aren't comparable.
func (m Metadata) Equal(other Metadata) bool {
	if m.Type != other.Type ||
		m.Codec != other.Codec ||
		m.Bitrate != other.Bitrate ||
		m.TimeScaleNum != other.TimeScaleNum ||
		m.TimeScaleDen != other.TimeScaleDen ||
		m.PixelFormat != other.PixelFormat ||
		m.SampleAspectRatioNum != other.SampleAspectRatioNum ||
		m.SampleAspectRatioDen != other.SampleAspectRatioDen ||
		m.Width != other.Width ||
		m.Height != other.Height ||
		m.FrameRateNum != other.FrameRateNum ||
		m.FrameRateDen != other.FrameRateDen ||
		m.NumChannels != other.NumChannels ||
		m.SampleRate != other.SampleRate ||
		m.BitsPerSample != other.BitsPerSample ||
		m.FrameSize != other.FrameSize ||
		m.Planar != other.Planar ||
		m.SampleFormat != other.SampleFormat ||
		m.Layout != other.Layout ||
		m.Filename != other.Filename ||
		m.MimeType != other.MimeType ||
		m.CodecName != other.CodecName ||
		m.DurationTicks != other.DurationTicks ||
		m.FileSize != other.FileSize ||
		m.LatencyTicks != other.LatencyTicks ||
		m.StartsWithRAP != other.StartsWithRAP ||
		m.EOS != other.EOS {
		return false
	}
	if len(m.CodecSpecificInfo) != len(other.CodecSpecificInfo) {
		return false
	}
	for i := range m.CodecSpecificInfo {
		if m.CodecSpecificInfo[i] != other.CodecSpecificInfo[i] {
			return false
		}
	}
	return true
}

func (m Metadata) String() string {
	return fmt.Sprintf("Metadata{%s codec=%q}", m.Type, m.Codec)
}

// PixelFormat enumerates the raster layouts produced/consumed by picture
// payloads.
type PixelFormat int

const (
	PixelUnknown PixelFormat = iota
	PixelY8
	PixelI420
	PixelYUV420P10LE
	PixelYUV422P
	PixelYUV422P10LE
	PixelYUYV422
	PixelNV12
	PixelNV12P010LE
	PixelRGB24
	PixelRGBA32
)

// AudioSampleFormat enumerates the sample encodings PCM payloads carry.
type AudioSampleFormat int

const (
	SampleS16 AudioSampleFormat = iota
	SampleF32
)

// AudioLayout enumerates the channel layouts PCM payloads carry.
type AudioLayout int

const (
	LayoutMono AudioLayout = iota
	LayoutStereo
	LayoutFivePointOne
)

// NumChannels returns the channel count implied by the layout.
func (l AudioLayout) NumChannels() int {
	switch l {
	case LayoutMono:
		return 1
	case LayoutStereo:
		return 2
	case LayoutFivePointOne:
		return 6
	default:
		return 0
	}
}
