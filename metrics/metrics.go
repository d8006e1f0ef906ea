package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

const (
	MetricsNamespace = "runrun"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of test runs by outcome",
	}, []string{
		"outcome",
	})

	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Duration of executed tests",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"outcome",
	})

	suitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_total",
		Help:      "Count of suite runs by status",
	}, []string{
		"status",
	})

	hookFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "hook_failures_total",
		Help:      "Count of failed suite hooks",
	}, []string{
		"hook",
	})

	timeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "timeouts_total",
		Help:      "Count of bodies and hooks abandoned after their timeout",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Verdict of the latest run",
	}, []string{
		"title",
		"verdict",
	})

	runTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests",
		Help:      "Test totals of the latest run",
	}, []string{
		"title",
		"total",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the latest run",
	}, []string{
		"title",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of completed runs",
	}, []string{
		"title",
	})
)

var verdicts = []types.Verdict{types.VerdictPass, types.VerdictFail, types.VerdictSkip}

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordTest counts a test outcome. Only executed tests observe a duration.
func RecordTest(outcome types.Outcome, duration time.Duration) {
	if !outcome.IsValid() {
		log.Error("RecordTest - invalid outcome", "outcome", outcome)
		return
	}
	testsTotal.WithLabelValues(string(outcome)).Inc()
	if outcome != types.OutcomeSkipped {
		testDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	}
}

func RecordSuite(status types.SuiteStatus) {
	suitesTotal.WithLabelValues(string(status)).Inc()
}

func RecordHookFailure(hook string) {
	if Debug {
		log.Debug("metric inc",
			"m", "hook_failures_total",
			"hook", hook,
		)
	}
	hookFailuresTotal.WithLabelValues(hook).Inc()
}

func RecordTimeout() {
	timeoutsTotal.Inc()
}

// RecordRun publishes the totals of a completed run. The verdict gauge is set to 1
// for the run's verdict and 0 for the others.
func RecordRun(title string, verdict string, totals types.Totals, duration time.Duration) {
	for _, v := range verdicts {
		value := 0.0
		if string(v) == verdict {
			value = 1
		}
		runResults.WithLabelValues(title, string(v)).Set(value)
	}
	runTests.WithLabelValues(title, "executed").Set(float64(totals.Executed))
	runTests.WithLabelValues(title, "succeeded").Set(float64(totals.Succeeded))
	runTests.WithLabelValues(title, "failed").Set(float64(totals.Failed))
	runTests.WithLabelValues(title, "skipped").Set(float64(totals.Skipped))
	runDuration.WithLabelValues(title).Set(duration.Seconds())
	runsTotal.WithLabelValues(title).Inc()
}
