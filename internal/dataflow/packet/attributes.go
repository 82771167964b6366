package packet

import "github.com/jmylchreest/signalgraph/internal/dataflow/clock"

// Attributes is the small value-type bag carried alongside a packet's
// payload and metadata: presentation/decoding time and cue flags. Presence
// is tracked explicitly per field rather than inferred from the zero value,
// since Fraction{} is a valid (and common) timestamp.
type Attributes struct {
	presentationTime    clock.Fraction
	hasPresentationTime bool

	decodingTime    clock.Fraction
	hasDecodingTime bool

	keyframe      bool
	hasKeyframe   bool
	discontinuity bool
	hasDiscontinuity bool
}

// WithPresentationTime returns a with its presentation time set.
func (a Attributes) WithPresentationTime(t clock.Fraction) Attributes {
	a.presentationTime = t
	a.hasPresentationTime = true
	return a
}

// PresentationTime returns the presentation time and whether it was set.
func (a Attributes) PresentationTime() (clock.Fraction, bool) {
	return a.presentationTime, a.hasPresentationTime
}

// WithDecodingTime returns a with its decoding time set.
func (a Attributes) WithDecodingTime(t clock.Fraction) Attributes {
	a.decodingTime = t
	a.hasDecodingTime = true
	return a
}

// DecodingTime returns the decoding time and whether it was set.
func (a Attributes) DecodingTime() (clock.Fraction, bool) {
	return a.decodingTime, a.hasDecodingTime
}

// WithKeyframe returns a with its keyframe flag set.
func (a Attributes) WithKeyframe(v bool) Attributes {
	a.keyframe = v
	a.hasKeyframe = true
	return a
}

// Keyframe returns the keyframe flag and whether it was set.
func (a Attributes) Keyframe() (bool, bool) {
	return a.keyframe, a.hasKeyframe
}

// WithDiscontinuity returns a with its discontinuity flag set.
func (a Attributes) WithDiscontinuity(v bool) Attributes {
	a.discontinuity = v
	a.hasDiscontinuity = true
	return a
}

// Discontinuity returns the discontinuity flag and whether it was set.
func (a Attributes) Discontinuity() (bool, bool) {
	return a.discontinuity, a.hasDiscontinuity
}
