package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every camlink collector. It is served by the gateway and ingest HTTP servers.
var Registry = prometheus.NewRegistry()

var (
	// FramesSent counts link sends by frame kind and outcome (ok/failed).
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_frames_sent_total",
			Help: "Frames handed to the link by the chunked sender.",
		},
		[]string{"kind", "status"},
	)

	// FramesReceived counts frames applied to the session table by kind.
	FramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_frames_received_total",
			Help: "Frames applied to the receiver session table.",
		},
		[]string{"kind"},
	)

	// FramesDropped counts frames that could not be used. reason: out_of_session, malformed, relay.
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_frames_dropped_total",
			Help: "Frames dropped by the receiver.",
		},
		[]string{"reason"},
	)

	// ImagesCompleted counts reassembled images put on the delivery queue.
	ImagesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_images_completed_total",
			Help: "Images reassembled and queued for delivery.",
		},
		[]string{"hash"}, // match/mismatch
	)

	// ImagesDiscarded counts transfers lost before delivery. reason: restart, overflow, queue_full, timeout.
	ImagesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_images_discarded_total",
			Help: "Transfers discarded before delivery.",
		},
		[]string{"reason"},
	)

	HashMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "camlink_hash_mismatches_total",
			Help: "Reassembled images whose content does not match the header hash.",
		},
	)

	// NodeVoltage is the last supply percentage reported by each node.
	NodeVoltage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camlink_node_voltage_percent",
			Help: "Last supply percentage carried in a node header (255 = unknown).",
		},
		[]string{"mac"},
	)

	// QueueDepth is the number of images waiting for the sinks.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "camlink_queue_depth",
			Help: "Images waiting in the delivery queue.",
		},
	)

	// SinkDeliveries counts sink calls by sink name and outcome.
	SinkDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_sink_deliveries_total",
			Help: "Image deliveries attempted per sink.",
		},
		[]string{"sink", "status"},
	)

	// SinkLatency records how long each sink takes per image.
	SinkLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camlink_sink_latency_seconds",
			Help:    "Latency of delivering one image to a sink.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// RelayFrames counts envelopes written to or decoded from the serial link.
	RelayFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camlink_relay_frames_total",
			Help: "Envelopes moved over the serial relay.",
		},
		[]string{"direction", "status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		FramesSent,
		FramesReceived,
		FramesDropped,
		ImagesCompleted,
		ImagesDiscarded,
		HashMismatches,
		NodeVoltage,
		QueueDepth,
		SinkDeliveries,
		SinkLatency,
		RelayFrames,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
