// Package packager implements the adaptive-streaming core (C10): given N
// input streams of pre-encoded segment packets, it tracks per-quality
// bitrate/duration bookkeeping, re-emits segments under canonical
// filenames, and drives a pluggable manifest writer (C11, dash/hls) once
// per completed segment tick.
package packager

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// Config tunes one Engine, mirroring the original framework's DasherConfig.
type Config struct {
	Live                   bool
	SegDurationMs          uint64
	ManifestDir            string
	ManifestName           string
	TimeShiftBufferDepthMs int64

	SegmentsNotOwned     bool
	PresignalNextSegment bool
	ForceRealDurations   bool
}

// QualityInfo is the static, per-representation description supplied once
// via AddQuality: the stream kind and dimensions used for prefix/Representation
// naming. It does not change tick to tick (unlike the per-packet segment
// metadata, which does).
type QualityInfo struct {
	Type       packet.StreamType // AudioPkt, VideoPkt, or SubtitlePkt
	Width      int
	Height     int
	SampleRate int
	Codec      string
	MimeType   string
}

type pendingSegment struct {
	durationIn180k uint64
	filename       string
}

type quality struct {
	info            QualityInfo
	prefix          string
	curSegDurIn180k uint64
	avgBitrateBps   uint64
	lastMeta        packet.Metadata
	seen            bool
	timeshift       []pendingSegment
}

func (q *quality) hasEOS() bool { return q.seen && q.lastMeta.EOS }

// QualitySnapshot is the read-only view of one quality handed to a
// ManifestBuilder.
type QualitySnapshot struct {
	Index           int
	Info            QualityInfo
	Prefix          string
	AvgBitrateBps   uint64
	LastMeta        packet.Metadata
	InitName        string
	MediaTemplate   string
	LastSegmentName string
}

// ManifestState is the full snapshot handed to a ManifestBuilder at the end
// of a ready segment tick or at flush.
type ManifestState struct {
	Live                   bool
	ManifestDir            string
	ManifestName           string
	TotalDurationInMs      int64
	StartTimeInMs          int64
	SegDurationMs          uint64
	SegDurationIn180k      uint64
	TimeShiftBufferDepthMs int64
	Qualities              []QualitySnapshot
}

// ManifestBuilder turns a ManifestState into serialized manifest bytes; the
// dash and hls subpackages each implement this.
type ManifestBuilder interface {
	Build(state ManifestState) []byte
}

// ManifestFile is one named document produced by a MultiFileManifestBuilder.
type ManifestFile struct {
	Name     string
	Contents []byte
}

// MultiFileManifestBuilder is an optional extension of ManifestBuilder for
// writers that emit more than one document per tick, such as HLS's master
// playlist plus one media playlist per quality (the original framework's
// Apple_HLS posts a separate outputManifest buffer for each variant and for
// the master). When a builder implements this, the Engine prefers it over
// the single-document Build.
type MultiFileManifestBuilder interface {
	BuildFiles(state ManifestState) []ManifestFile
}

// Engine is the stateful per-tick adaptive-streaming core. It is driven by
// repeated Tick calls (typically from a Module's Process loop) and a final
// Flush at end of stream.
type Engine struct {
	cfg               Config
	logger            *slog.Logger
	builder           ManifestBuilder
	onSegment         func(p *packet.Packet)
	onManifest        func(p *packet.Packet)
	qualities         []*quality
	queues            [][]*packet.Packet
	segDurationIn180k uint64
	totalDurationInMs int64
	startTimeInMs     int64
	started           bool
}

// New creates an Engine. onSegment is invoked for every re-emitted segment
// (and init/delete) packet; onManifest for every manifest packet.
func New(cfg Config, logger *slog.Logger, onSegment, onManifest func(p *packet.Packet)) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:               cfg,
		logger:            logger,
		onSegment:         onSegment,
		onManifest:        onManifest,
		segDurationIn180k: cfg.SegDurationMs * clock.Rate / 1000,
	}
}

// SetManifestBuilder installs the DASH or HLS writer used on ready ticks.
func (e *Engine) SetManifestBuilder(b ManifestBuilder) {
	e.builder = b
}

// AddQuality registers one input representation and returns its index, the
// one to pass to PushSegment.
func (e *Engine) AddQuality(info QualityInfo) int {
	idx := len(e.qualities)
	e.qualities = append(e.qualities, &quality{info: info})
	e.queues = append(e.queues, nil)
	return idx
}

// PushSegment enqueues one segment (or init-segment, duration zero) packet
// for quality idx.
func (e *Engine) PushSegment(idx int, p *packet.Packet) {
	e.queues[idx] = append(e.queues[idx], p)
}

// Tick runs one round of the schedule algorithm (spec §4.9): try to
// advance every quality by one packet, and if the round completed a full
// segment across all qualities, emit it (and, in live mode, the
// manifest). Returns false
// when no quality could make progress (some input queue is empty),
// matching "nothing was done" in the original framework.
func (e *Engine) Tick() bool {
	anyPopped := false
	for idx := range e.qualities {
		handled, popped := e.scheduleRepresentation(idx)
		if !handled {
			break
		}
		if popped {
			anyPopped = true
		}
	}
	if !anyPopped {
		return false
	}

	if e.segmentReady() {
		for _, q := range e.qualities {
			q.curSegDurIn180k -= e.segDurationIn180k
		}
		e.onNewSegment()
		e.totalDurationInMs += int64(e.cfg.SegDurationMs)
	}
	return true
}

// Flush drains every remaining queued packet and writes a final manifest,
// per spec §4.9 item 6.
func (e *Engine) Flush() {
	for e.Tick() {
	}
	e.onEndOfStream()
}

func (e *Engine) isComplete(idx int) bool {
	minIncomplete := uint64(math.MaxUint64)
	for _, q := range e.qualities {
		d := q.curSegDurIn180k
		if d < minIncomplete && (d < e.segDurationIn180k || !q.hasEOS()) {
			minIncomplete = d
		}
	}
	if minIncomplete == math.MaxUint64 {
		return true
	}
	return e.qualities[idx].curSegDurIn180k > minIncomplete
}

func (e *Engine) segmentReady() bool {
	for _, q := range e.qualities {
		if q.curSegDurIn180k < e.segDurationIn180k {
			return false
		}
		if !q.hasEOS() {
			return false
		}
	}
	return true
}

// scheduleRepresentation tries to advance quality idx by one packet. handled
// is false only when idx's queue is empty (nothing to do this round, and
// the caller's for-loop over qualities must stop, mirroring the original's
// early break so earlier qualities don't race ahead of a stalled one).
// popped reports whether real work happened (as opposed to idx already
// being complete for this round).
func (e *Engine) scheduleRepresentation(idx int) (handled bool, popped bool) {
	if e.isComplete(idx) {
		return true, false
	}
	if len(e.queues[idx]) == 0 {
		return false, false
	}

	p := e.queues[idx][0]
	e.queues[idx] = e.queues[idx][1:]
	q := e.qualities[idx]
	meta := p.Metadata

	if q.prefix == "" {
		q.prefix = e.prefixFor(idx) + "/"
	}

	if !e.started {
		if pt, ok := p.Attrs.PresentationTime(); ok {
			e.startTimeInMs = int64(pt.Seconds() * 1000)
		}
		e.started = true
	}

	if meta.DurationTicks == 0 && q.curSegDurIn180k == 0 {
		e.processInitSegment(idx, p, meta)
		q.seen = true
		q.lastMeta = meta
		if e.cfg.PresignalNextSegment {
			e.emitSegment(idx, q, e.segmentName(idx, e.curSegNum()), 0, false)
		}
		return true, true
	}

	if e.cfg.SegDurationMs > 0 && meta.DurationTicks > 0 {
		numSeg := uint64(e.totalDurationInMs) / e.cfg.SegDurationMs
		q.avgBitrateBps = (meta.FileSize*8*clock.Rate/meta.DurationTicks + q.avgBitrateBps*numSeg) / (numSeg + 1)
	}

	if e.cfg.ForceRealDurations {
		q.curSegDurIn180k += meta.DurationTicks
	} else if e.segDurationIn180k > 0 {
		q.curSegDurIn180k = e.segDurationIn180k
	} else {
		q.curSegDurIn180k = meta.DurationTicks
	}
	q.seen = true
	q.lastMeta = meta

	// Unlike the original framework, each pushed packet here is a whole,
	// already-complete segment rather than one chunk of an incrementally
	// filled buffer, so there is no partial-completion case to withhold:
	// every packet that reaches this point is sent, including the one that
	// also carries EOS.
	e.sendSegment(idx, q, meta, p)
	return true, true
}

func (e *Engine) prefixFor(idx int) string {
	info := e.qualities[idx].info
	switch info.Type {
	case packet.AudioPkt:
		return fmt.Sprintf("a_%d", idx)
	case packet.VideoPkt:
		return fmt.Sprintf("v_%d_%dx%d", idx, info.Width, info.Height)
	case packet.SubtitlePkt:
		return fmt.Sprintf("s_%d", idx)
	default:
		return ""
	}
}

func (e *Engine) initName(idx int) string {
	return e.qualities[idx].prefix + "-init.mp4"
}

func (e *Engine) segmentName(idx int, token string) string {
	return e.qualities[idx].prefix + "-" + token + ".m4s"
}

func (e *Engine) curSegNum() string {
	n := uint64(0)
	if e.cfg.SegDurationMs > 0 {
		n = uint64(e.startTimeInMs+e.totalDurationInMs) / e.cfg.SegDurationMs
	}
	return strconv.FormatUint(n, 10)
}

func (e *Engine) processInitSegment(idx int, p *packet.Packet, meta packet.Metadata) {
	filename := meta.Filename
	if filename == "" || !e.cfg.SegmentsNotOwned {
		filename = e.cfg.ManifestDir + e.initName(idx)
	}
	out := packet.NewSegment(filename, meta.MimeType, meta.CodecName, 0, meta.FileSize, meta.StartsWithRAP, false)
	np := p.Retain().WithMetadata(out)
	np = np.WithAttrs(np.Attrs.WithPresentationTime(clock.NewFraction(e.totalDurationInMs, 1000)))
	e.onSegment(np)
}

func (e *Engine) sendSegment(idx int, q *quality, meta packet.Metadata, p *packet.Packet) {
	name := e.cfg.ManifestDir + e.segmentName(idx, e.curSegNum())
	e.emitSegment(idx, q, name, meta.FileSize, meta.EOS)
}

// emitSegment posts a segment packet and, when the segment is complete,
// pushes it onto the time-shift ring and runs deletion against the
// configured depth.
func (e *Engine) emitSegment(idx int, q *quality, filename string, size uint64, eos bool) {
	meta := packet.NewSegment(filename, q.lastMeta.MimeType, q.lastMeta.CodecName, q.lastMeta.DurationTicks, size, q.lastMeta.StartsWithRAP, eos)
	out := packet.New(packet.NewRaw(nil, nil), meta)
	out = out.WithAttrs(out.Attrs.WithPresentationTime(clock.NewFraction(e.totalDurationInMs, 1000)))
	e.onSegment(out)

	if eos {
		q.timeshift = append([]pendingSegment{{durationIn180k: q.lastMeta.DurationTicks, filename: filename}}, q.timeshift...)
		if e.cfg.TimeShiftBufferDepthInMs() > 0 {
			e.deleteOldSegments(q)
		}
	}
}

func (e *Engine) deleteOldSegments(q *quality) {
	var total int64
	depth := e.cfg.TimeShiftBufferDepthInMs()
	kept := 0
	for i, seg := range q.timeshift {
		total += int64(seg.durationIn180k) * 1000 / clock.Rate
		if total > depth {
			e.logger.Debug("packager: deleting time-shifted segment", "filename", seg.filename)
			del := packet.Metadata{Type: packet.Segment, Filename: seg.filename, FileSize: math.MaxInt64}
			e.onSegment(packet.New(packet.NewRaw(nil, nil), del))
			continue
		}
		kept = i + 1
	}
	q.timeshift = q.timeshift[:kept]
}

// TimeShiftBufferDepthInMs exposes cfg.TimeShiftBufferDepthMs as an int64
// accessor so deleteOldSegments reads cleanly against a named quantity.
func (c Config) TimeShiftBufferDepthInMs() int64 { return c.TimeShiftBufferDepthMs }

func (e *Engine) onNewSegment() {
	if !e.cfg.Live || e.builder == nil {
		return
	}
	e.writeManifest(e.cfg.Live)
}

func (e *Engine) onEndOfStream() {
	if e.cfg.TimeShiftBufferDepthMs > 0 {
		e.logger.Info("packager: manifest not rewritten for time-shifted live shutdown; media files already pruned")
		return
	}
	if e.builder == nil {
		return
	}
	e.totalDurationInMs -= int64(e.cfg.SegDurationMs)
	e.writeManifest(false)
}

func (e *Engine) writeManifest(live bool) {
	state := ManifestState{
		Live:              live,
		ManifestDir:       e.cfg.ManifestDir,
		ManifestName:      e.cfg.ManifestName,
		TotalDurationInMs: e.totalDurationInMs,
		StartTimeInMs:     e.startTimeInMs,
		SegDurationMs:          e.cfg.SegDurationMs,
		SegDurationIn180k:      e.segDurationIn180k,
		TimeShiftBufferDepthMs: e.cfg.TimeShiftBufferDepthMs,
	}
	for i, q := range e.qualities {
		state.Qualities = append(state.Qualities, QualitySnapshot{
			Index:           i,
			Info:            q.info,
			Prefix:          q.prefix,
			AvgBitrateBps:   q.avgBitrateBps,
			LastMeta:        q.lastMeta,
			InitName:        e.initName(i),
			MediaTemplate:   e.segmentName(i, "$Number$"),
			LastSegmentName: e.segmentName(i, e.curSegNum()),
		})
	}

	if mb, ok := e.builder.(MultiFileManifestBuilder); ok {
		for _, f := range mb.BuildFiles(state) {
			e.emitManifestFile(f.Name, f.Contents)
		}
		return
	}
	e.emitManifestFile(e.cfg.ManifestName, e.builder.Build(state))
}

func (e *Engine) emitManifestFile(name string, contents []byte) {
	meta := packet.Metadata{
		Type:          packet.Playlist,
		Filename:      e.cfg.ManifestDir + name,
		DurationTicks: e.segDurationIn180k,
		FileSize:      uint64(len(contents)),
	}
	p := packet.New(packet.NewRaw(contents, nil), meta)
	p = p.WithAttrs(p.Attrs.WithPresentationTime(clock.NewFraction(e.totalDurationInMs, 1000)))
	e.onManifest(p)
}
