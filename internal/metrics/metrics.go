// Package metrics wires the dataflow runtime's counters, histograms, and
// host gauges onto an optional Prometheus registry. Every recorder method
// is nil-safe: a pipeline built without a registry pays no instrumentation
// cost and never touches a nil pointer, the same nil-safe-by-default
// contract the teacher's ProgressReporter gives callers that don't care
// about progress.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Recorder records dataflow runtime metrics. The zero value is usable and
// every method is a no-op; use New to back it with a real registry.
type Recorder struct {
	packetsEmitted  *prometheus.CounterVec
	packetsDropped  *prometheus.CounterVec
	allocBlocked    *prometheus.CounterVec
	tickLatency     prometheus.Histogram
	segmentsWritten *prometheus.CounterVec
	manifestsWritten prometheus.Counter

	hostCPUPercent    prometheus.Gauge
	hostMemPercent    prometheus.Gauge
	hostMemUsedBytes  prometheus.Gauge
	hostMemTotalBytes prometheus.Gauge
}

// New creates a Recorder and registers its collectors on reg. If reg is
// nil, New returns a Recorder whose methods are all no-ops.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return &Recorder{}
	}

	r := &Recorder{
		packetsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalgraph",
			Subsystem: "port",
			Name:      "packets_emitted_total",
			Help:      "Packets posted on an output port, labeled by port name.",
		}, []string{"port"}),
		packetsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalgraph",
			Subsystem: "port",
			Name:      "packets_dropped_total",
			Help:      "Packets dropped at an output port for lack of a receiver.",
		}, []string{"port"}),
		allocBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalgraph",
			Subsystem: "allocator",
			Name:      "blocking_events_total",
			Help:      "Times an allocator.Pool.Alloc call blocked waiting for a free buffer.",
		}, []string{"pool"}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "signalgraph",
			Subsystem: "rectifier",
			Name:      "tick_latency_seconds",
			Help:      "Wall-clock time spent in one rectifier scheduling tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		segmentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalgraph",
			Subsystem: "packager",
			Name:      "segments_written_total",
			Help:      "Segments emitted by the packager, labeled by quality index.",
		}, []string{"quality"}),
		manifestsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signalgraph",
			Subsystem: "packager",
			Name:      "manifests_written_total",
			Help:      "Manifest documents written by the packager's ManifestBuilder.",
		}),
		hostCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signalgraph",
			Subsystem: "host",
			Name:      "cpu_percent",
			Help:      "Host CPU utilization percentage, sampled once per SampleHost call.",
		}),
		hostMemPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signalgraph",
			Subsystem: "host",
			Name:      "memory_percent",
			Help:      "Host memory utilization percentage.",
		}),
		hostMemUsedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signalgraph",
			Subsystem: "host",
			Name:      "memory_used_bytes",
			Help:      "Host memory currently in use.",
		}),
		hostMemTotalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signalgraph",
			Subsystem: "host",
			Name:      "memory_total_bytes",
			Help:      "Total host memory.",
		}),
	}

	reg.MustRegister(
		r.packetsEmitted, r.packetsDropped, r.allocBlocked, r.tickLatency,
		r.segmentsWritten, r.manifestsWritten,
		r.hostCPUPercent, r.hostMemPercent, r.hostMemUsedBytes, r.hostMemTotalBytes,
	)
	return r
}

// PacketEmitted records a successful Output.Post delivery for the named port.
func (r *Recorder) PacketEmitted(port string) {
	if r == nil || r.packetsEmitted == nil {
		return
	}
	r.packetsEmitted.WithLabelValues(port).Inc()
}

// PacketDropped records an Output.Post call that reached zero receivers.
func (r *Recorder) PacketDropped(port string) {
	if r == nil || r.packetsDropped == nil {
		return
	}
	r.packetsDropped.WithLabelValues(port).Inc()
}

// AllocBlocked records one allocator.Pool.Alloc call that had to wait for
// a buffer to free up.
func (r *Recorder) AllocBlocked(pool string) {
	if r == nil || r.allocBlocked == nil {
		return
	}
	r.allocBlocked.WithLabelValues(pool).Inc()
}

// ObserveTick records the wall-clock duration of one rectifier scheduling
// tick.
func (r *Recorder) ObserveTick(d time.Duration) {
	if r == nil || r.tickLatency == nil {
		return
	}
	r.tickLatency.Observe(d.Seconds())
}

// SegmentWritten records one segment emitted for the given quality index.
func (r *Recorder) SegmentWritten(quality string) {
	if r == nil || r.segmentsWritten == nil {
		return
	}
	r.segmentsWritten.WithLabelValues(quality).Inc()
}

// ManifestWritten records one manifest document written.
func (r *Recorder) ManifestWritten() {
	if r == nil || r.manifestsWritten == nil {
		return
	}
	r.manifestsWritten.Inc()
}

// SampleHost gathers current host CPU/memory usage via gopsutil and
// updates the host gauges, the same two calls the teacher's
// collectSystemStats makes.
func (r *Recorder) SampleHost(ctx context.Context) error {
	if r == nil || r.hostCPUPercent == nil {
		return nil
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		r.hostCPUPercent.Set(pct[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	r.hostMemPercent.Set(vm.UsedPercent)
	r.hostMemUsedBytes.Set(float64(vm.Used))
	r.hostMemTotalBytes.Set(float64(vm.Total))
	return nil
}
