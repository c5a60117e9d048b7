package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/felixge/fgprof"
	"github.com/loopworks/frameclock/pkg/log"
)

type MetricsServer struct {
	httpServer *http.Server
	running    bool
	started    time.Time
}

var lock = &sync.Mutex{}

var metricsServer *MetricsServer

var (
	SamplesTaken           *vmetrics.Counter
	SpuriousReads          *vmetrics.Counter
	StallCorrections       *vmetrics.Counter
	MonotonicityViolations *vmetrics.Counter
	ClockDrift             *vmetrics.Summary
	SampleCost             *vmetrics.Summary
)

func RegisterMetrics(globalLabels map[string]string) {
	labels := map[string]string{}
	maps.Copy(labels, globalLabels)
	labelsString := labelsToString(labels)

	SamplesTaken = vmetrics.GetOrCreateCounter("frameclock_samples_total" + labelsString)
	SpuriousReads = vmetrics.GetOrCreateCounter("frameclock_spurious_reads_total" + labelsString)
	StallCorrections = vmetrics.GetOrCreateCounter("frameclock_stall_corrections_total" + labelsString)
	MonotonicityViolations = vmetrics.GetOrCreateCounter("frameclock_monotonicity_violations_total" + labelsString)
	ClockDrift = vmetrics.GetOrCreateSummaryExt("frameclock_drift_seconds"+labelsString, 1*time.Second, []float64{0.5, 0.9, 0.95, 0.99})
	SampleCost = vmetrics.GetOrCreateSummaryExt("frameclock_sample_cost_seconds"+labelsString, 1*time.Second, []float64{0.5, 0.9, 0.95, 0.99})
}

func Reset() {
	SamplesTaken.Set(0)
	SpuriousReads.Set(0)
	StallCorrections.Set(0)
	MonotonicityViolations.Set(0)
}

func GetMetricsServer() *MetricsServer {
	lock.Lock()
	defer lock.Unlock()
	if metricsServer == nil {
		http.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
			vmetrics.WritePrometheus(w, true)
		})
		http.Handle("/debug/fgprof", fgprof.Handler())

		metricsServer =
			&MetricsServer{
				httpServer: &http.Server{
					Addr: get_metrics_ip() + ":8080",
				},
			}
	}

	return metricsServer
}

func (m *MetricsServer) Start() {
	if m.running {
		return
	}

	go func() {
		for {
			m.httpServer.RegisterOnShutdown(func() {
				m.running = false
			})
			m.started = time.Now()
			m.running = true
			log.Debug("Starting Prometheus metrics server", "address", m.httpServer.Addr)
			err := m.httpServer.ListenAndServe()
			if errors.Is(err, syscall.EADDRINUSE) {
				port, _ := strconv.Atoi(strings.Split(m.httpServer.Addr, ":")[1])
				m.httpServer.Addr = get_metrics_ip() + ":" + fmt.Sprint(port+1)
				log.Info("Prometheus metrics: port already in use, trying the next one", "port", m.httpServer.Addr)
			}
		}
	}()
}

func (m *MetricsServer) StartTime(t time.Time) {
	m.started = t
}

var previouslySampled uint64

func (m *MetricsServer) PrintSampleRates(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(1 * time.Second):
				sampled := SamplesTaken.Get()

				log.Print("",
					"samples", fmt.Sprintf("%v/s", sampled-previouslySampled),
					"spurious", SpuriousReads.Get(),
					"violations", MonotonicityViolations.Get())

				previouslySampled = sampled
			}
		}
	}()
}

func (m *MetricsServer) PrintSummary() {
	// this might be called before the metrics were registered
	// eg. by `frameclock --help`
	if SamplesTaken == nil {
		return
	}

	log.Print("TOTAL SAMPLES",
		"samples", SamplesTaken.Get(),
		"rate", fmt.Sprintf("%.2f/s", float64(SamplesTaken.Get())/time.Since(m.started).Seconds()))
	log.Print("ANOMALIES ABSORBED",
		"spurious reads", SpuriousReads.Get(),
		"stall corrections", StallCorrections.Get(),
		"monotonicity violations", MonotonicityViolations.Get())
}

func (m MetricsServer) PrintAll() {
	endpoint := fmt.Sprintf("http://%s/metrics", m.httpServer.Addr)
	resp, err := http.Get(endpoint)
	if err != nil {
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Error reading metrics", "error", err)
		return
	}

	metrics := strings.Split(string(body), "\n")
	for _, metric := range metrics {
		if strings.HasPrefix(metric, "frameclock_") {
			fmt.Println(metric)
		}
	}
}

func get_metrics_ip() string {
	// on macOS, return 127.0.0.1, otherwise 0.0.0.0
	if runtime.GOOS == "darwin" {
		return "127.0.0.1"
	} else {
		return "0.0.0.0"
	}
}

func labelsToString(labels map[string]string) string {
	result := ""
	if len(labels) > 0 {
		result = "{"
		for label, value := range labels {
			result += label + `="` + value + `",`
		}
		result = strings.TrimSuffix(result, ",") + "}"
	}
	return result
}
