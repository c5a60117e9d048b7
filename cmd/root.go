package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/loopworks/frameclock/pkg/clock"
	"github.com/loopworks/frameclock/pkg/config"
	"github.com/loopworks/frameclock/pkg/log"
	"github.com/loopworks/frameclock/pkg/loop"
	"github.com/loopworks/frameclock/pkg/metrics"
	"github.com/loopworks/frameclock/pkg/nanotime"
	"github.com/loopworks/frameclock/pkg/utils"
	"github.com/loopworks/frameclock/pkg/version"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

var cfg config.Config

var (
	runCmd       = &cobra.Command{}
	calibrateCmd = &cobra.Command{}
	versionCmd   = &cobra.Command{}
)

var metricTags []string

var metricsServer *metrics.MetricsServer

func Execute() {
	rootCmd := RootCmd()
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func RootCmd() *cobra.Command {
	cfg = config.NewConfig()

	runFlags := pflag.NewFlagSet("run", pflag.ContinueOnError)

	runFlags.IntVarP(&cfg.Samplers, "samplers", "x", 1,
		"The number of clock samplers to start")
	runFlags.IntVarP(&cfg.SampleCount, "samples", "C", math.MaxInt,
		"The number of samples to take per sampler (default=MaxInt)")
	runFlags.Float32VarP(&cfg.Rate, "rate", "r", -1,
		"Samples per second per sampler (-1 = unlimited)")
	runFlags.DurationVarP(&cfg.Duration, "time", "z", 0,
		"Run duration (eg. 10s, 5m, 2h)")
	runFlags.StringVar(&cfg.Until, "until", "",
		"Stop at an ISO 8601 timestamp (eg. 2030-01-02T15:04:05Z)")

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Sample the monotonic clock in a paced frame loop",
		Run: func(cmd *cobra.Command, args []string) {
			start(cfg)
		},
	}
	runCmd.Flags().AddFlagSet(runFlags)

	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Report the counter calibration and per-sample cost",
		Run: func(cmd *cobra.Command, args []string) {
			calibrate(cfg)
		},
	}

	versionCmd = &cobra.Command{
		Use: "version",
		Run: func(cmd *cobra.Command, args []string) {
			version.Print()
			os.Exit(0)
		},
	}

	rootCmd := &cobra.Command{
		Use: "frameclock",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Setup()

			err := sanitizeConfig(&cfg)
			if err != nil {
				fmt.Printf("ERROR: %s\n", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.PersistentFlags().VarP(enumflag.New(&cfg.Source, "source", config.SourceModes, enumflag.EnumCaseInsensitive), "source", "",
		"Counter source (auto, fallback)")

	rootCmd.PersistentFlags().StringSliceVar(&metricTags, "metric-tags", []string{},
		"Prometheus label-value pairs, eg. l1=v1,l2=v2")
	rootCmd.PersistentFlags().VarP(enumflag.New(&log.Level, "log-level", log.Levels, enumflag.EnumCaseInsensitive), "log-level", "l",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&cfg.PrintAllMetrics, "print-all-metrics", false,
		"Print all metrics before exiting")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func start(cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle ^C
	handleInterupt(ctx, cancel)

	metrics.RegisterMetrics(cfg.MetricTags)
	metricsServer = metrics.GetMetricsServer()
	metricsServer.Start()

	var wg sync.WaitGroup

	loop.Start(ctx, &wg, cfg)
	metricsServer.StartTime(time.Now())

	if cfg.Duration > 0 {
		time.AfterFunc(cfg.Duration, func() { cancel() })
		log.Debug("will stop all samplers at " + time.Now().Add(cfg.Duration).String())
	}

	// every second, print the current sampling rate
	metricsServer.PrintSampleRates(ctx)

	wg.Wait()

	metricsServer.PrintSummary()
	if cfg.PrintAllMetrics {
		metricsServer.PrintAll()
	}
}

// calibrate builds a clock the same way run does and reports what the
// calibration step decided, plus a short measured sampling cost.
func calibrate(cfg config.Config) {
	src := loop.NewSource(cfg)

	hz, ok := src.Frequency()
	if !ok {
		log.Warn("no high-resolution counter available, using millisecond fallback")
		log.Print("CALIBRATION", "mode", "fallback", "resolution", "1ms")
		return
	}

	shift, scaled := clock.Normalize(hz)

	log.Print("CALIBRATION",
		"mode", "highres",
		"frequency", fmt.Sprintf("%dHz", hz),
		"shift", shift,
		"scaled frequency", fmt.Sprintf("%dHz", scaled),
		"resolution", fmt.Sprintf("%.0fns", 1e9/float64(scaled)))

	clk := clock.New(src)
	const probes = 1000
	before := nanotime.NanoTime()
	for i := 0; i < probes; i++ {
		clk.Now()
	}
	cost := nanotime.Since(before) / probes
	log.Print("SAMPLING COST", "per sample", fmt.Sprintf("%dns", cost), "clock", clk.Now())
}

func sanitizeConfig(cfg *config.Config) error {
	if cfg.Samplers < 1 {
		return fmt.Errorf("samplers must be at least 1")
	}

	if cfg.SampleCount < 0 {
		return fmt.Errorf("samples can't be negative")
	}

	if cfg.Rate < -1 {
		return fmt.Errorf("sample rate can't be less than -1")
	}

	if cfg.Until != "" {
		remaining, err := utils.ParseDeadline(cfg.Until)
		if err != nil {
			return err
		}
		if cfg.Duration == 0 || remaining < cfg.Duration {
			cfg.Duration = remaining
		}
	}

	// split metric tags into key-value pairs
	cfg.MetricTags = make(map[string]string)
	for _, tag := range metricTags {
		parts := strings.Split(tag, "=")
		if len(parts) != 2 {
			return fmt.Errorf("invalid metric tags: %s, use label=value format", tag)
		}
		cfg.MetricTags[parts[0]] = parts[1]
	}

	return nil
}

func handleInterupt(ctx context.Context, cancel context.CancelFunc) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case <-c:
			cancel()
			log.Print("Received SIGTERM, shutting down...")
			// samplers observe the cancelled context; this is just
			// a backup mechanism
			time.Sleep(5 * time.Second)
			os.Exit(0)
		case <-ctx.Done():
			return
		}
	}()
}
