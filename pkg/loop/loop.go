// Package loop runs the clock's consumer: a paced sampling loop that reads
// a monotonic clock the way a frame loop would, checks the returned values
// live, and exports timing quality as metrics.
package loop

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/loopworks/frameclock/pkg/clock"
	"github.com/loopworks/frameclock/pkg/config"
	"github.com/loopworks/frameclock/pkg/log"
	"github.com/loopworks/frameclock/pkg/metrics"
	"github.com/loopworks/frameclock/pkg/nanotime"
	"github.com/loopworks/frameclock/pkg/utils"
)

// NewSource returns the counter source selected by cfg.
func NewSource(cfg config.Config) clock.Source {
	src := clock.System()
	if cfg.Source == config.Fallback {
		src = clock.WithoutHighRes(src)
	}
	return src
}

// Start launches cfg.Samplers sampling goroutines. Each sampler owns its
// own Clock; the clock's state is never shared across goroutines.
func Start(ctx context.Context, wg *sync.WaitGroup, cfg config.Config) {
	if _, ok := NewSource(cfg).Frequency(); !ok {
		log.Warn("no high-resolution counter available, using millisecond fallback")
	}

	for i := 1; i <= cfg.Samplers; i++ {
		select {
		case <-ctx.Done():
			return
		default:
			n := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				sample(ctx, cfg, n)
			}()
		}
	}
}

func sample(ctx context.Context, cfg config.Config, id int) {
	clk := clock.New(NewSource(cfg))
	limiter := utils.RateLimiter(cfg.Rate)

	wallStart := time.Now()
	var previous float64

	for n := 0; n < cfg.SampleCount; n++ {
		if err := limiter.Wait(ctx); err != nil {
			// context cancelled
			break
		}

		before := nanotime.NanoTime()
		now := clk.Now()
		cost := nanotime.Since(before)

		metrics.SamplesTaken.Inc()
		metrics.SampleCost.Update(float64(cost) / 1e9)

		// The clock promises this never happens; counting it live is the
		// whole point of the harness.
		if now < previous {
			metrics.MonotonicityViolations.Inc()
			log.Error("clock went backward", "sampler", id, "previous", previous, "current", now)
		}
		previous = now

		metrics.ClockDrift.Update(math.Abs(now - time.Since(wallStart).Seconds()))
	}

	stats := clk.Stats()
	metrics.SpuriousReads.Add(int(stats.SpuriousReads))
	metrics.StallCorrections.Add(int(stats.StallCorrections))
	log.Debug("sampler finished", "id", id, "samples", stats.Samples, "clock", previous)
}
