// Package clock derives a continuously increasing, seconds-denominated,
// double-precision time value from a raw platform counter. It tolerates
// counters that wrap, step backward across cores, stall below double
// precision, or don't exist at all; a frame loop built on it never sees
// time go backward and never sees it freeze.
package clock

import "math"

const (
	// maxScaledHz is the target frequency after normalization: the raw
	// counter frequency is halved until it fits under this, which keeps
	// about 1 microsecond of resolution while bounding the magnitude of
	// tick deltas multiplied into a float64.
	maxScaledHz = 2000000

	// backwardGuard separates jitter from wraparound. A sample at or
	// below the previous one with a gap smaller than this is a spurious
	// backward step and is absorbed; a larger gap is the counter wrapping
	// its 32-bit range. Policy constant, an eighth of the sample space.
	backwardGuard = 0x10000000

	// stallLimit is how many consecutive bit-identical accumulated values
	// are tolerated before the clock is forced ahead by forcedStep. Keeps
	// the clock live under pathological counter conditions at the cost of
	// a one-time visible jump.
	stallLimit = 100000

	forcedStep = 1.0

	// fallbackWrap is the span of the millisecond fallback counter; it
	// wraps once past this value.
	fallbackWrap = math.MaxInt32
)

// Clock accumulates seconds from the shifted samples of a Source.
//
// A Clock must be created with New and is confined to a single goroutine:
// the guard and stall logic below is not safe under concurrent mutation.
// Give each sampling goroutine its own Clock, or serialize Now externally.
type Clock struct {
	src Source

	scale float64 // seconds per shifted tick
	shift uint    // applied to the frequency and to every raw sample

	lastTicks   uint32
	seconds     float64
	lastSeconds float64
	sameCount   int

	fallback       bool
	fallbackOrigin uint32

	stats Stats
}

// Stats counts the anomalies a Clock absorbed. The clock itself never
// reports them; callers that care read Stats and export as they see fit.
type Stats struct {
	// Samples is the number of Now calls served.
	Samples uint64
	// SpuriousReads counts samples at or slightly behind the previous
	// one, returned as repeated time instead of corrupting the clock.
	SpuriousReads uint64
	// StallCorrections counts forced 1-second jumps after stallLimit
	// identical readings.
	StallCorrections uint64
}

// New calibrates a Clock against src and takes the origin sample.
// Elapsed time before New is unmeasured.
//
// If src reports no high-resolution counter the Clock runs permanently on
// the millisecond fallback path; Fallback reports which mode was chosen so
// the caller can warn the operator once.
func New(src Source) *Clock {
	c := &Clock{src: src}

	hz, ok := src.Frequency()
	if !ok {
		c.fallback = true
		c.fallbackOrigin = src.Millis()
		return c
	}

	// Remember the shift so every raw sample is scaled identically. A
	// 64-bit frequency inverted naively loses precision once per-frame
	// deltas get small.
	c.shift, hz = Normalize(hz)
	c.scale = 1 / float64(hz)

	c.lastTicks = uint32(src.Ticks() >> c.shift)
	return c
}

// Normalize halves hz until it fits under the working precision ceiling,
// returning the shift applied and the resulting scaled frequency.
func Normalize(hz uint64) (uint, uint64) {
	var shift uint
	for hz > maxScaledHz {
		hz >>= 1
		shift++
	}
	return shift, hz
}

// Fallback reports whether the Clock runs on the low-resolution path.
func (c *Clock) Fallback() bool {
	return c.fallback
}

// Now returns the accumulated seconds since New. Successive return values
// never decrease. Now never fails: absent counters, backward steps and
// precision stalls are compensated internally.
//
// Now panics when called on a zero-value Clock; construct with New.
func (c *Clock) Now() float64 {
	if c.src == nil {
		panic("clock: Clock used without New")
	}
	c.stats.Samples++

	if c.fallback {
		now := c.src.Millis()
		if now < c.fallbackOrigin {
			// wrapped once
			return float64(now+(fallbackWrap-c.fallbackOrigin)) / 1000.0
		}
		return float64(now-c.fallbackOrigin) / 1000.0
	}

	cur := uint32(c.src.Ticks() >> c.shift)

	// Turnover or backward time. A genuine 32-bit wrap lands far outside
	// the guard window and falls through to the unsigned subtraction,
	// which then yields the correct large positive delta.
	if cur <= c.lastTicks && c.lastTicks-cur < backwardGuard {
		c.lastTicks = cur // so we don't get stuck
		c.stats.SpuriousReads++
		return c.seconds
	}

	delta := cur - c.lastTicks
	c.lastTicks = cur
	c.seconds += float64(delta) * c.scale

	// With a large accumulated value a tiny delta can vanish below double
	// precision, leaving the clock bit-identical read after read. Force
	// it ahead rather than let dependents spin on frozen time.
	if c.seconds == c.lastSeconds {
		c.sameCount++
		if c.sameCount > stallLimit {
			c.seconds += forcedStep
			c.sameCount = 0
			c.stats.StallCorrections++
		}
	} else {
		c.sameCount = 0
	}
	c.lastSeconds = c.seconds

	return c.seconds
}

// Stats returns the anomaly counters accumulated so far.
func (c *Clock) Stats() Stats {
	return c.stats
}
