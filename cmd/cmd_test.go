package cmd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/loopworks/frameclock/pkg/config"
	"github.com/loopworks/frameclock/pkg/metrics"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	type test struct {
		source   string
		samplers string
		samples  string
	}

	tests := []test{
		{source: "auto", samplers: "2", samples: "500"},
		{source: "fallback", samplers: "1", samples: "100"},
	}

	for _, tc := range tests {
		t.Run(tc.source+"-"+tc.samplers, func(t *testing.T) {
			rootCmd := RootCmd()

			args := []string{"run",
				"-x", tc.samplers,
				"-C", tc.samples,
				"--source", tc.source,
				"-z", "10s"}
			rootCmd.SetArgs(args)
			fmt.Println("Running test: frameclock", strings.Join(args, " "))

			err := rootCmd.Execute()
			assert.Nil(t, err)

			var samplers, samples uint64
			_, _ = fmt.Sscan(tc.samplers, &samplers)
			_, _ = fmt.Sscan(tc.samples, &samples)
			assert.Equal(t, samplers*samples, metrics.SamplesTaken.Get())
			assert.Zero(t, metrics.MonotonicityViolations.Get())
			metrics.Reset()
		})
	}
}

func TestCalibrate(t *testing.T) {
	rootCmd := RootCmd()
	rootCmd.SetArgs([]string{"calibrate"})
	assert.Nil(t, rootCmd.Execute())
}

func TestSanitizeConfig(t *testing.T) {
	c := config.NewConfig()
	c.Samplers = 0
	assert.Error(t, sanitizeConfig(&c))

	c = config.NewConfig()
	c.Samplers = 1
	c.Rate = -2
	assert.Error(t, sanitizeConfig(&c))

	c = config.NewConfig()
	c.Samplers = 1
	c.Until = "2001-01-01T00:00:00Z"
	assert.Error(t, sanitizeConfig(&c))

	metricTags = []string{"l1=v1"}
	c = config.NewConfig()
	c.Samplers = 1
	assert.Nil(t, sanitizeConfig(&c))
	assert.Equal(t, "v1", c.MetricTags["l1"])

	metricTags = []string{"bogus"}
	c = config.NewConfig()
	c.Samplers = 1
	assert.Error(t, sanitizeConfig(&c))
	metricTags = nil
}
