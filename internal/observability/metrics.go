package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sms_automation_api_requests_total", Help: "API requests"},
		[]string{"path", "status"},
	)
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sms_dispatch_total", Help: "Dispatch outcomes"},
		[]string{"mode", "result"},
	)
	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "sms_dispatch_latency_seconds", Help: "Dispatch latency"},
		[]string{"mode"},
	)
	Running = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sms_automation_running", Help: "1 while the automation is running"},
	)
	SentMessages = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sms_automation_sent_total", Help: "Messages confirmed sent"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, Dispatches, DispatchLatency, Running, SentMessages)
}
