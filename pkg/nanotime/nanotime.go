package nanotime

import "unsafe"

// Make goimports import the unsafe package, which is required to be able
// to use //go:linkname
var _ = unsafe.Sizeof(0)

//go:noescape
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// NanoTime returns the current time in nanoseconds from a monotonic clock.
// The time returned is based on some arbitrary platform-specific point in
// the past and is guaranteed to increase at a constant rate, unlike
// time.Now(), which may slow down, speed up, or jump due to NTP activity.
// Reading it is also cheaper than time.Now(), which matters when a sample
// is taken on every frame-loop iteration.
func NanoTime() uint64 {
	return uint64(nanotime())
}

// Since returns the nanoseconds elapsed since an earlier NanoTime reading.
func Since(start uint64) uint64 {
	return NanoTime() - start
}
