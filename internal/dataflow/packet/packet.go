package packet

import (
	"sync/atomic"
)

// Payload is the contiguous-byte-span contract every packet payload
// variant implements: a plain buffer, a Picture, or a PCM block.
type Payload interface {
	// Bytes returns the payload's contiguous byte span. For planar
	// Picture/PCM payloads this is the full backing buffer; use the
	// plane accessors on the concrete type for per-plane views.
	Bytes() []byte
	// Recyclable reports whether the payload's storage should be
	// returned to its allocator on last release instead of freed.
	Recyclable() bool
}

// releaser is implemented by payloads that came from a pool and must
// notify it on last release.
type releaser interface {
	release()
}

// Packet is a reference-counted, immutable-by-convention container
// carrying a Payload, its Metadata, and its Attributes. A nil Packet (or a
// Packet with a nil Payload) is the termination sentinel posted by a
// source module on end of stream.
type Packet struct {
	refs     *int32
	Payload  Payload
	Metadata Metadata
	Attrs    Attributes
}

// New wraps payload into a fresh Packet with a single reference.
func New(payload Payload, meta Metadata) *Packet {
	refs := int32(1)
	return &Packet{refs: &refs, Payload: payload, Metadata: meta}
}

// Null returns the termination sentinel: a Packet with no payload.
func Null() *Packet {
	return &Packet{}
}

// IsNull reports whether p is the termination sentinel.
func (p *Packet) IsNull() bool {
	return p == nil || p.Payload == nil
}

// Retain increments the reference count and returns p, so callers can fan
// a packet out to multiple downstream queues without racing its release.
func (p *Packet) Retain() *Packet {
	if p == nil || p.refs == nil {
		return p
	}
	atomic.AddInt32(p.refs, 1)
	return p
}

// Release decrements the reference count. On the last release, a
// recyclable payload is returned to its allocator; modules must not touch
// the packet after calling Release.
func (p *Packet) Release() {
	if p == nil || p.refs == nil {
		return
	}
	if atomic.AddInt32(p.refs, -1) > 0 {
		return
	}
	if p.Payload == nil || !p.Payload.Recyclable() {
		return
	}
	if r, ok := p.Payload.(releaser); ok {
		r.release()
	}
}

// WithAttrs returns p with its Attributes replaced; used by modules that
// derive a new packet's timing from an input packet without copying the
// payload.
func (p *Packet) WithAttrs(a Attributes) *Packet {
	if p == nil {
		return p
	}
	np := *p
	np.Attrs = a
	return &np
}

// WithMetadata returns p with its Metadata replaced. Used when an input
// updates a packet's metadata to match its own, per the port runtime
// negotiation rule in spec §4.3 item 5.
func (p *Packet) WithMetadata(m Metadata) *Packet {
	if p == nil {
		return p
	}
	np := *p
	np.Metadata = m
	return &np
}
