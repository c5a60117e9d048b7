package clock

// Source supplies raw readings from a platform counter. Implementations
// must be cheap: Ticks and Millis are called once per frame.
type Source interface {
	// Frequency reports the raw counter rate in ticks per second, and
	// whether a high-resolution counter is available at all. Called once,
	// during calibration.
	Frequency() (uint64, bool)

	// Ticks returns the current raw counter value.
	Ticks() uint64

	// Millis returns a low-resolution millisecond counter, wrapping at
	// fallbackWrap. Only consulted when Frequency reported no
	// high-resolution counter.
	Millis() uint32
}

// System returns the platform's high-resolution counter source.
func System() Source {
	return systemSource{}
}

// WithoutHighRes wraps src so that it denies having a high-resolution
// counter, forcing any Clock built on it onto the millisecond fallback
// path. Used to exercise fallback mode on hardware that has a counter.
func WithoutHighRes(src Source) Source {
	return lowResOnly{src}
}

type lowResOnly struct {
	Source
}

func (lowResOnly) Frequency() (uint64, bool) {
	return 0, false
}

func millisOf(nanos int64) uint32 {
	return uint32((nanos / 1e6) % (fallbackWrap + 1))
}
