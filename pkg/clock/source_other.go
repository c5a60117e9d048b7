//go:build !linux
// +build !linux

package clock

import (
	"github.com/loopworks/frameclock/pkg/nanotime"
)

// systemSource reads the Go runtime's monotonic nanosecond counter.
type systemSource struct{}

func (systemSource) Frequency() (uint64, bool) {
	return 1e9, true
}

func (systemSource) Ticks() uint64 {
	return nanotime.NanoTime()
}

func (systemSource) Millis() uint32 {
	return millisOf(int64(nanotime.NanoTime()))
}
