package lobby

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds every lobby metric
	Registry = prometheus.NewRegistry()

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lobby",
			Name:      "frames_sent_total",
			Help:      "Frames written to the link, retransmissions included.",
		},
		[]string{"cmd"},
	)

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lobby",
			Name:      "frames_received_total",
			Help:      "Data frames handed to the dispatcher.",
		},
		[]string{"cmd"},
	)

	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lobby",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames that never reached the dispatcher.",
		},
		[]string{"reason"},
	)

	retransmits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lobby",
		Name:      "retransmits_total",
		Help:      "Ack-required frames sent again.",
	})

	giveUps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lobby",
		Name:      "give_ups_total",
		Help:      "Ack-required frames dropped without an ack.",
	})

	pendingSends = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lobby",
		Name:      "pending_sends",
		Help:      "Ack-required frames waiting for an ack.",
	})

	registrySize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lobby",
			Name:      "registry_entries",
			Help:      "Entries in each registry, sentinels excluded.",
		},
		[]string{"registry"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lobby",
			Name:      "events_total",
			Help:      "Events surfaced by the service loop.",
		},
		[]string{"kind"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "lobby",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		Uptime,
	)
)

func init() {
	Registry.MustRegister(framesSent, framesReceived, framesDropped, retransmits,
		giveUps, pendingSends, registrySize, eventsTotal, uptime)
}

// Uptime reports how long the program has been running
func Uptime() float64 {
	return math.Floor(time.Since(startTime).Seconds())
}

// MetricsHandler exposes the lobby metrics.
// Mount it with mux.Handle("/metrics", lobby.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
