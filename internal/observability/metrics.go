package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posnotif_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	Enqueues = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posnotif_enqueue_total", Help: "Queue entry enqueue results"},
		[]string{"source", "result"},
	)
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posnotif_dispatch_total", Help: "Terminal dispatch outcomes"},
		[]string{"result", "reason"},
	)
	GatewaySend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "whacenter_send_total", Help: "WhatsApp gateway send outcomes"},
		[]string{"result", "http_status"},
	)
	GatewayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "whacenter_send_latency_seconds", Help: "WhatsApp gateway send latency"},
	)
	TopUpDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posnotif_topup_decisions_total", Help: "Top-up decisions"},
		[]string{"status", "result"},
	)
	SummaryStores = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posnotif_summary_stores_total", Help: "Daily summary per-store outcomes"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, Enqueues, Dispatches, GatewaySend, GatewayLatency, TopUpDecisions, SummaryStores)
}
