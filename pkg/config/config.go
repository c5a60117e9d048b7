package config

import (
	"math"
	"time"

	"github.com/thediveo/enumflag/v2"
)

type SourceMode enumflag.Flag

const (
	// Auto uses the platform high-resolution counter when one exists and
	// degrades to the millisecond fallback when it doesn't.
	Auto SourceMode = iota
	// Fallback forces the millisecond path even when a high-resolution
	// counter is available.
	Fallback
)

var SourceModes = map[SourceMode][]string{
	Auto:     {"auto"},
	Fallback: {"fallback"},
}

type Config struct {
	Samplers        int
	SampleCount     int
	Rate            float32
	Duration        time.Duration
	Until           string
	Source          SourceMode
	MetricTags      map[string]string
	PrintAllMetrics bool
}

func NewConfig() Config {
	return Config{
		Samplers:    1,
		SampleCount: math.MaxInt,
		Rate:        -1,
		Source:      Auto,
	}
}
