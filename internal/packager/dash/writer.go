package dash

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// Serialize renders mpd as an ISO/IEC 23009-1 MPD document using streaming
// Fprintf calls rather than xml.Marshal, to keep exact control over
// element order and attribute formatting.
func Serialize(mpd MPD) string {
	var b bytes.Buffer

	fmt.Fprintln(&b, `<?xml version="1.0" encoding="UTF-8"?>`)

	typ := "static"
	if mpd.Dynamic {
		typ = "dynamic"
	}
	fmt.Fprintf(&b, `<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="%s" profiles="%s" minBufferTime="%s"`,
		typ, xmlEscape(mpd.Profiles), isoDuration(mpd.MinBufferTimeMs))
	if mpd.Dynamic {
		fmt.Fprintf(&b, ` availabilityStartTime="%s" publishTime="%s" minimumUpdatePeriod="%s"`,
			isoInstant(mpd.AvailabilityStartTimeMs), isoInstant(mpd.PublishTimeMs), isoDuration(mpd.MinimumUpdatePeriodMs))
		if mpd.TimeShiftBufferDepthMs > 0 {
			fmt.Fprintf(&b, ` timeShiftBufferDepth="%s"`, isoDuration(mpd.TimeShiftBufferDepthMs))
		}
	} else {
		fmt.Fprintf(&b, ` mediaPresentationDuration="%s"`, isoDuration(mpd.MediaPresentationDurationMs))
	}
	fmt.Fprintln(&b, ">")

	for _, url := range mpd.BaseURLs {
		fmt.Fprintf(&b, "  <BaseURL>%s</BaseURL>\n", xmlEscape(url))
	}

	for _, period := range mpd.Periods {
		fmt.Fprintf(&b, `  <Period id="%s">`, xmlEscape(period.ID))
		fmt.Fprintln(&b)
		for _, as := range period.AdaptationSets {
			writeAdaptationSet(&b, as)
		}
		fmt.Fprintln(&b, "  </Period>")
	}

	fmt.Fprintln(&b, "</MPD>")
	return b.String()
}

func writeAdaptationSet(b *bytes.Buffer, as AdaptationSet) {
	fmt.Fprintf(b, `    <AdaptationSet contentType="%s" segmentAlignment="%t" bitstreamSwitching="%t">`,
		xmlEscape(as.ContentType), as.SegmentAlignment, as.BitstreamSwitching)
	fmt.Fprintln(b)

	for _, rep := range as.Representations {
		fmt.Fprintf(b, `      <Representation id="%s" bandwidth="%d" mimeType="%s" codecs="%s" startWithSAP="%s"`,
			xmlEscape(rep.ID), rep.Bandwidth, xmlEscape(rep.MimeType), xmlEscape(rep.Codecs), sapValue(rep.StartWithSAP))
		if rep.Width > 0 {
			fmt.Fprintf(b, ` width="%d" height="%d"`, rep.Width, rep.Height)
		}
		if rep.AudioSamplingRate > 0 {
			fmt.Fprintf(b, ` audioSamplingRate="%d"`, rep.AudioSamplingRate)
		}
		fmt.Fprintln(b, ">")
		fmt.Fprintf(b, `        <SegmentTemplate duration="%d" timescale="%d" startNumber="%d" initialization="%s" media="%s"/>`,
			as.Duration, as.Timescale, as.StartNumber, xmlEscape(rep.Initialization), xmlEscape(rep.Media))
		fmt.Fprintln(b)
		fmt.Fprintln(b, "      </Representation>")
	}

	fmt.Fprintln(b, "    </AdaptationSet>")
}

func sapValue(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// isoDuration renders milliseconds as an ISO-8601 period, PT<seconds>S,
// with fractional seconds when not a whole number.
func isoDuration(ms int64) string {
	secs := float64(ms) / 1000.0
	if ms%1000 == 0 {
		return fmt.Sprintf("PT%dS", ms/1000)
	}
	return fmt.Sprintf("PT%.3fS", secs)
}

// isoInstant renders a millisecond Unix timestamp as an RFC 3339 instant.
func isoInstant(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
