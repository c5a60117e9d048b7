package main_test

import (
	"bufio"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var _ = Describe("Frameclock CLI", func() {
	Describe("executed without any commands/flags, displays its usage", func() {
		It("should print help", func() {
			session := frameclock([]string{})
			Eventually(session).Should(gexec.Exit(0))
			Eventually(session.Out).Should(gbytes.Say(`Available Commands:`))
			Eventually(session.Out).Should(gbytes.Say(`Flags:`))
		})
	})

	DescribeTable("samples the clock with either counter source",
		func(source string) {
			args := []string{
				"run",
				"--samplers=2",
				"--samples=200",
				"--rate=100",
				"--source=" + source,
				"--time=5s",
				"--print-all-metrics",
			}

			session := frameclock(args)
			Eventually(session).WithTimeout(10 * time.Second).Should(gexec.Exit(0))

			Eventually(session.Err).Should(gbytes.Say(`TOTAL SAMPLES samples=400`))
			Eventually(session.Err).Should(gbytes.Say(`ANOMALIES ABSORBED`))

			output, _ := io.ReadAll(session.Out)
			Expect(metricValue(strings.NewReader(string(output)), `frameclock_samples_total`)).Should(Equal(400.0))
			Expect(metricValue(strings.NewReader(string(output)), `frameclock_monotonicity_violations_total`)).Should(Equal(0.0))
		},
		Entry("high-resolution counter", "auto"),
		Entry("millisecond fallback", "fallback"),
	)

	Describe("warns once when running on the fallback counter", func() {
		It("should log the degradation", func() {
			args := []string{
				"run",
				"--samples=10",
				"--source=fallback",
				"--time=3s",
			}

			session := frameclock(args)
			Eventually(session).WithTimeout(5 * time.Second).Should(gexec.Exit(0))
			Eventually(session.Err).Should(gbytes.Say(`no high-resolution counter available, using millisecond fallback`))
		})
	})

	Describe("reports the counter calibration", func() {
		It("should print frequency, shift and resolution", func() {
			session := frameclock([]string{"calibrate"})
			Eventually(session).WithTimeout(5 * time.Second).Should(gexec.Exit(0))
			Eventually(session.Err).Should(gbytes.Say(`CALIBRATION`))
			Eventually(session.Err).Should(gbytes.Say(`SAMPLING COST`))
		})
	})

	Describe("rejects a deadline in the past", func() {
		It("should exit with an error", func() {
			session := frameclock([]string{"run", "--until=2001-01-01T00:00:00Z"})
			Eventually(session).Should(gexec.Exit(1))
			Eventually(session.Out).Should(gbytes.Say(`is in the past`))
		})
	})

	Describe("exposes command line flags as metric tags", func() {
		It("should label the metrics", func() {
			args := []string{
				"run",
				"--samples=10",
				"--rate=10",
				"--time=3s",
				"--metric-tags=host=ci",
				"--print-all-metrics",
			}
			session := frameclock(args)
			Eventually(session).WithTimeout(5 * time.Second).Should(gexec.Exit(0))
			Eventually(session.Out).Should(gbytes.Say(`frameclock_samples_total\{host="ci"\} 10`))
		})
	})
})

func frameclock(args []string) *gexec.Session {
	GinkgoWriter.Println("frameclock", strings.Join(args, " "))

	cmd := exec.Command(frameclockPath, args...)
	session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
	Expect(err).ShouldNot(HaveOccurred())
	return session
}

func metricValue(buf io.Reader, metric string) float64 {
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, metric) {
			v, err := strconv.ParseFloat(strings.Fields(line)[1], 64)
			if err != nil {
				return -1
			}
			GinkgoWriter.Println("The value of", metric, "is", v)
			return v
		}
	}
	return -1
}
