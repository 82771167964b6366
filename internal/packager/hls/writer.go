package hls

import (
	"bytes"
	"fmt"
	"time"
)

// SerializeMaster renders m as an HLS master playlist, in the same
// line-by-line Fprintf/Fprintln style as the teacher's m3u writer.
func SerializeMaster(m MasterPlaylist) string {
	var b bytes.Buffer

	fmt.Fprintln(&b, "#EXTM3U")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", m.Version)
	if m.IndependentSegments {
		fmt.Fprintln(&b, "#EXT-X-INDEPENDENT-SEGMENTS")
		fmt.Fprintln(&b)
	}

	for _, a := range m.AudioRenditions {
		fmt.Fprintf(&b, "#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=%q,NAME=%q,LANGUAGE=%q,AUTOSELECT=YES,URI=%q\n",
			a.GroupID, a.Name, a.Language, a.URI)
	}
	if len(m.AudioRenditions) > 0 {
		fmt.Fprintln(&b)
	}

	for _, v := range m.Variants {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=%d", v.Bandwidth)
		if v.Codecs != "" {
			fmt.Fprintf(&b, ",CODECS=%q", v.Codecs)
		}
		if v.AudioGroupID != "" {
			fmt.Fprintf(&b, ",AUDIO=%q", v.AudioGroupID)
		}
		if v.Resolution != "" {
			fmt.Fprintf(&b, ",RESOLUTION=%s", v.Resolution)
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, v.URI)
	}

	return b.String()
}

// SerializeMedia renders p as one quality's HLS media playlist.
func SerializeMedia(p MediaPlaylist) string {
	var b bytes.Buffer

	fmt.Fprintln(&b, "#EXTM3U")
	fmt.Fprintf(&b, "#EXT-X-VERSION:%d\n", p.Version)
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", p.TargetDurationSeconds)
	fmt.Fprintf(&b, "#EXT-X-MEDIA-SEQUENCE:%d\n", p.MediaSequence)
	if p.IndependentSegments {
		fmt.Fprintln(&b, "#EXT-X-INDEPENDENT-SEGMENTS")
	}
	if p.MapURI != "" {
		fmt.Fprintf(&b, "#EXT-X-MAP:URI=%q\n", p.MapURI)
	}
	if p.EventType {
		fmt.Fprintln(&b, "#EXT-X-PLAYLIST-TYPE:EVENT")
	}

	for _, seg := range p.Segments {
		fmt.Fprintf(&b, "#EXTINF:%g,\n", seg.DurationSeconds)
		if seg.ProgramDateTimeMs > 0 {
			fmt.Fprintf(&b, "#EXT-X-PROGRAM-DATE-TIME:%s\n", programDateTime(seg.ProgramDateTimeMs))
		}
		fmt.Fprintln(&b, seg.URI)
	}

	if p.EndList {
		fmt.Fprintln(&b, "#EXT-X-ENDLIST")
	}

	return b.String()
}

// programDateTime matches the original writer's "%Y-%m-%dT%H:%M:%S.mmm+00:00" format.
func programDateTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000+00:00")
}
