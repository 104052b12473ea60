package bmc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics covering the full session lifecycle and the FRU/SEL
// readers. All registered under the "bmc" namespace.
var (
	sessionOpenAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_open_attempts_total",
		Help:      "Number of times Open was called.",
	})

	sessionOpenFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_open_failures_total",
		Help:      "Number of Open attempts that failed, labeled by the step they failed at.",
	}, []string{"step"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of sessions currently in the Active state.",
	})

	requestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_sent_total",
		Help:      "Number of IPMI requests sent across all sessions.",
	})

	requestsTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_timed_out_total",
		Help:      "Number of IPMI requests that hit their deadline unanswered.",
	})

	requestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_completed_total",
		Help:      "Number of IPMI requests that received a response, labeled by completion code mnemonic.",
	}, []string{"completion_code"})

	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Number of frames that failed to decode, labeled by reason.",
	}, []string{"reason"})

	fruReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fru_reads_total",
		Help:      "Number of FRU inventory reads, labeled by outcome.",
	}, []string{"outcome"})

	selReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sel_reads_total",
		Help:      "Number of SEL reads, labeled by outcome.",
	}, []string{"outcome"})
)
