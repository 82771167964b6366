// Package rectifier implements the time rectifier (C9): a sample-accurate
// multi-stream resynchronizer that ticks at a configured framerate and
// emits exactly one sample per connected stream per tick, with strictly
// monotonic, exactly periodic output mediaTime.
package rectifier

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/clock"
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
)

// defaultAnalyzeWindow is the spec's 500ms trim window.
var defaultAnalyzeWindow = clock.NewFraction(1, 2)

// queuedFrame is one buffered input sample, stamped with the clock time it
// arrived (for analyze-window trimming) and its own media time.
type queuedFrame struct {
	creationTime clock.Fraction
	mediaTime    clock.Fraction
	packet       *packet.Packet
}

// EmitFunc is called once per stream per tick with the packet the
// rectifier produced for it (streamID "" denotes the master/video stream).
type EmitFunc func(streamID string, p *packet.Packet)

// Config configures a Rectifier's tick rate and trim window.
type Config struct {
	FramePeriod   clock.Fraction
	AnalyzeWindow clock.Fraction
}

// audioStream tracks one connected raw-audio input's queue and format.
type audioStream struct {
	format packet.PCMFormat
	queue  []queuedFrame
}

// otherStream tracks one connected non-audio, non-master raw input.
type otherStream struct {
	queue []queuedFrame
	last  *queuedFrame
}

// Rectifier is the stateful per-tick engine. All state is guarded by a
// single mutex per spec §9 ("Rectifier mutex"): the tick body holds it for
// the whole computation.
type Rectifier struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
	emit   EmitFunc

	mu          sync.Mutex
	masterQueue []queuedFrame
	lastMaster  *queuedFrame
	audio       map[string]*audioStream
	other       map[string]*otherStream

	tickIndex int64
}

// New creates a Rectifier. emit is called synchronously from within Tick
// for every packet the rectifier produces.
func New(cfg Config, c clock.Clock, logger *slog.Logger, emit EmitFunc) *Rectifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AnalyzeWindow.Den == 0 {
		cfg.AnalyzeWindow = defaultAnalyzeWindow
	}
	return &Rectifier{
		cfg:    cfg,
		clock:  c,
		logger: logger,
		emit:   emit,
		audio:  make(map[string]*audioStream),
		other:  make(map[string]*otherStream),
	}
}

// PushMaster enqueues a master (video) frame. mediaTime is the frame's own
// presentation time in its input timebase.
func (r *Rectifier) PushMaster(p *packet.Packet, mediaTime clock.Fraction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.masterQueue = append(r.masterQueue, queuedFrame{
		creationTime: r.clock.Now(),
		mediaTime:    mediaTime,
		packet:       p,
	})
}

// AddAudioStream registers streamID as a raw-audio slave with the given
// sample format, so subsequent PushAudio calls are windowed against it.
func (r *Rectifier) AddAudioStream(streamID string, format packet.PCMFormat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio[streamID] = &audioStream{format: format}
}

// PushAudio enqueues a raw-audio sample for streamID. mediaTime is the
// packet's first sample's presentation time, in samples-since-epoch at the
// stream's own sample rate expressed as a Fraction of seconds.
func (r *Rectifier) PushAudio(streamID string, p *packet.Packet, mediaTime clock.Fraction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.audio[streamID]
	if !ok {
		return
	}
	s.queue = append(s.queue, queuedFrame{
		creationTime: r.clock.Now(),
		mediaTime:    mediaTime,
		packet:       p,
	})
}

// AddOtherStream registers streamID as a generic raw input windowed like
// the master but without master-selection semantics.
func (r *Rectifier) AddOtherStream(streamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.other[streamID] = &otherStream{}
}

// PushOther enqueues a frame for a generic raw stream.
func (r *Rectifier) PushOther(streamID string, p *packet.Packet, mediaTime clock.Fraction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.other[streamID]
	if !ok {
		return
	}
	s.queue = append(s.queue, queuedFrame{
		creationTime: r.clock.Now(),
		mediaTime:    mediaTime,
		packet:       p,
	})
}

// Tick runs one iteration of the per-tick algorithm (spec §4.8). It
// returns false if there is no master frame available yet (the tick is
// skipped entirely, per "if none exists yet, skip the tick").
func (r *Rectifier) Tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.trimQueues(now)

	master, ok := r.selectMaster(now)
	if !ok {
		return false
	}

	outMasterStart := clock.NewFraction(r.cfg.FramePeriod.Num*r.tickIndex, r.cfg.FramePeriod.Den)
	inMasterStart := master.mediaTime
	inMasterStop := inMasterStart.Add(r.cfg.FramePeriod)

	r.emitMaster(master, outMasterStart)
	r.emitAudio(inMasterStart, inMasterStop, outMasterStart)
	r.emitOther(inMasterStart, inMasterStop, outMasterStart)

	r.tickIndex++
	return true
}

// trimQueues drops records older than now-analyzeWindow from every queue,
// always keeping at least one entry (per spec §4.8).
func (r *Rectifier) trimQueues(now clock.Fraction) {
	cutoff := now.Sub(r.cfg.AnalyzeWindow)
	r.masterQueue = trim(r.masterQueue, cutoff)
	for _, s := range r.audio {
		s.queue = trim(s.queue, cutoff)
	}
	for _, s := range r.other {
		s.queue = trim(s.queue, cutoff)
	}
}

func trim(q []queuedFrame, cutoff clock.Fraction) []queuedFrame {
	for len(q) > 1 && q[0].creationTime.Seconds() < cutoff.Seconds() {
		q = q[1:]
	}
	return q
}

// selectMaster implements spec §4.8 step 1: peek-or-pop the video queue
// head, or fall back to the last seen master frame (blank reuse).
func (r *Rectifier) selectMaster(now clock.Fraction) (queuedFrame, bool) {
	if len(r.masterQueue) > 0 {
		head := r.masterQueue[0]
		if now.Seconds()-head.creationTime.Seconds() < r.cfg.FramePeriod.Seconds() {
			// Fresh enough to absorb phase jitter: leave it queued,
			// it may be used again next tick.
			r.lastMaster = &head
			return head, true
		}
		r.masterQueue = r.masterQueue[1:]
		r.lastMaster = &head
		return head, true
	}
	if r.lastMaster != nil {
		r.logger.Debug("rectifier: reusing last master frame (blank)")
		return *r.lastMaster, true
	}
	return queuedFrame{}, false
}

func (r *Rectifier) emitMaster(master queuedFrame, outMasterStart clock.Fraction) {
	p := master.packet.Retain().WithAttrs(master.packet.Attrs.WithPresentationTime(outMasterStart))
	r.emit("", p)
}

// emitAudio fills and emits one output PCM packet per registered audio
// stream, copying the sample-index window [inMasterStart, inMasterStop)
// out of whatever queued packets overlap it (silence where none do), per
// spec §4.8's audio sample-interval intersection algorithm.
func (r *Rectifier) emitAudio(inMasterStart, inMasterStop, outMasterStart clock.Fraction) {
	for streamID, s := range r.audio {
		rate := int64(s.format.SampleRate)
		if rate == 0 {
			continue
		}
		startSample := inMasterStart.Ticks(rate)
		stopSample := inMasterStop.Ticks(rate)
		if stopSample <= startSample {
			continue
		}
		needed := int(stopSample - startSample)
		out := make([]byte, needed*s.format.BytesPerSample())

		for len(s.queue) > 0 {
			head := s.queue[0]
			pcm, ok := head.packet.Payload.(*packet.PCM)
			if !ok {
				s.queue = s.queue[1:]
				continue
			}
			frameStart := head.mediaTime.Ticks(rate)
			frameEnd := frameStart + int64(pcm.SampleCount())

			if frameEnd <= startSample {
				// Entirely before the window: stale, drop.
				s.queue = s.queue[1:]
				continue
			}
			if frameStart >= stopSample {
				// Entirely after the window: keep for a later tick.
				break
			}

			copyStart := maxInt64(startSample, frameStart)
			copyEnd := minInt64(stopSample, frameEnd)
			width := s.format.BytesPerSample()
			srcOff := int(copyStart-frameStart) * width
			dstOff := int(copyStart-startSample) * width
			n := int(copyEnd-copyStart) * width
			copy(out[dstOff:dstOff+n], pcm.Bytes()[srcOff:srcOff+n])

			if frameEnd <= stopSample {
				s.queue = s.queue[1:]
				continue
			}
			break
		}

		outPCM, err := packet.NewPCM(out, s.format, needed, nil)
		if err != nil {
			r.logger.Error("rectifier: building audio output", "stream", streamID, "error", err)
			continue
		}
		p := packet.New(outPCM, packet.NewRawAudio())
		p = p.WithAttrs(p.Attrs.WithPresentationTime(outMasterStart))
		r.emit(streamID, p)
	}
}

// emitOther emits, for every generic raw stream, whichever queued frame
// falls within [inMasterStart, inMasterStop), or reuses the last frame
// emitted for that stream if none is queued yet.
func (r *Rectifier) emitOther(inMasterStart, inMasterStop, outMasterStart clock.Fraction) {
	for streamID, s := range r.other {
		var best *queuedFrame
		for i := range s.queue {
			f := s.queue[i]
			if !f.mediaTime.Less(inMasterStart) && f.mediaTime.Less(inMasterStop) {
				best = &s.queue[i]
			}
		}
		if best == nil {
			if s.last == nil {
				continue
			}
			best = s.last
		} else {
			s.last = best
		}
		p := best.packet.Retain().WithAttrs(best.packet.Attrs.WithPresentationTime(outMasterStart))
		r.emit(streamID, p)
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
