// Package clock provides monotonic and virtual time sources plus a
// deadline-ordered task scheduler for the dataflow runtime.
package clock

import (
	"sync"
	"time"
)

// Rate is the common clock rate used throughout the dataflow runtime,
// expressed in ticks per second. All packet timestamps are in this rate
// unless explicitly converted.
const Rate = 180000

// Fraction represents a point in time (or a duration) as a rational number
// of seconds, matching the original framework's Fraction(seconds) contract.
// Using a rational avoids drift when repeatedly adding periods like
// 1001/30000 s.
type Fraction struct {
	Num, Den int64
}

// NewFraction creates a Fraction, normalizing a zero denominator to 1.
func NewFraction(num, den int64) Fraction {
	if den == 0 {
		den = 1
	}
	return Fraction{Num: num, Den: den}
}

// Seconds returns the floating point seconds value. Used only for logging
// and coarse comparisons; exact arithmetic should stay in Fraction/Ticks.
func (f Fraction) Seconds() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// Ticks converts the fraction to an integer count at the given rate,
// rounding up, matching spec's "round-up division" convention for
// timescale conversion.
func (f Fraction) Ticks(rate int64) int64 {
	if f.Den == 0 {
		return 0
	}
	num := f.Num * rate
	den := f.Den
	if num%den == 0 {
		return num / den
	}
	return num/den + 1
}

// Add returns f + other, reduced to lowest terms. A zero denominator (as in
// the zero-value Fraction) is read as 1, so the zero value acts as time zero.
func (f Fraction) Add(other Fraction) Fraction {
	if f.Den == 0 {
		f.Den = 1
	}
	if other.Den == 0 {
		other.Den = 1
	}
	num, den := f.Num*other.Den+other.Num*f.Den, f.Den*other.Den
	if f.Den == other.Den {
		num, den = f.Num+other.Num, f.Den
	}
	g, b := num, den
	if g < 0 {
		g = -g
	}
	for b != 0 {
		g, b = b, g%b
	}
	if g > 1 {
		num, den = num/g, den/g
	}
	return NewFraction(num, den)
}

// Sub returns f - other.
func (f Fraction) Sub(other Fraction) Fraction {
	return f.Add(NewFraction(-other.Num, other.Den))
}

// Less reports whether f < other.
func (f Fraction) Less(other Fraction) bool {
	return f.Num*other.Den < other.Num*f.Den
}

// TicksToFraction converts a tick count at the given rate back to a Fraction
// of seconds.
func TicksToFraction(ticks int64, rate int64) Fraction {
	return NewFraction(ticks, rate)
}

// Clock exposes the current time and playback speed. A WallClock ticks with
// real time; a VirtualClock is advanced manually by tests.
type Clock interface {
	// Now returns the current time as a Fraction of seconds.
	Now() Fraction
	// Speed returns the clock's playback speed multiplier (1.0 = real time).
	Speed() float64
}

// WallClock is a Clock backed by the monotonic system clock.
type WallClock struct {
	t0    time.Time
	speed float64
}

// NewWallClock creates a WallClock whose origin is the current time and
// whose speed is 1.0.
func NewWallClock() *WallClock {
	return &WallClock{t0: time.Now(), speed: 1.0}
}

// Now implements Clock.
func (c *WallClock) Now() Fraction {
	elapsed := time.Since(c.t0).Seconds() * c.speed
	// Represent as nanosecond-denominator fraction to avoid float storage
	// of the final time; this keeps Fraction arithmetic exact downstream.
	return NewFraction(int64(elapsed*float64(time.Second)), int64(time.Second))
}

// Speed implements Clock.
func (c *WallClock) Speed() float64 {
	return c.speed
}

// VirtualClock is a Clock whose time only moves when Advance or Set is
// called. Used by tests to deterministically exercise scheduler/regulator/
// rectifier behavior without wall-clock sleeps.
type VirtualClock struct {
	mu    sync.Mutex
	now   Fraction
	speed float64
}

// NewVirtualClock creates a VirtualClock starting at time zero.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{speed: 1.0}
}

// Now implements Clock.
func (c *VirtualClock) Now() Fraction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Speed implements Clock.
func (c *VirtualClock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the virtual clock's reported speed.
func (c *VirtualClock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
}

// Set moves the virtual clock to an absolute time. Time may only move
// forward; Set panics if given a time before the current one, since the
// dataflow runtime assumes monotonic clocks.
func (c *VirtualClock) Set(t Fraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Less(c.now) {
		panic("clock: virtual clock cannot move backward")
	}
	c.now = t
}

// Advance moves the virtual clock forward by delta.
func (c *VirtualClock) Advance(delta Fraction) {
	c.mu.Lock()
	now := c.now.Add(delta)
	c.mu.Unlock()
	c.Set(now)
}
