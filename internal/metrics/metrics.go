package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exchange outcome labels that are not OAuth error codes.
const (
	ResultIssued = "issued"
	ResultReused = "reused"
	ResultError  = "server_error"
)

// ProviderUnknown is the provider label for names missing from the registry.
const ProviderUnknown = "unknown"

// Collector holds the Prometheus metrics for the token exchange.
type Collector struct {
	exchangesTotal   *prometheus.CounterVec
	userinfoDuration *prometheus.HistogramVec
	userinfoFailures *prometheus.CounterVec
}

// NewCollector registers the exchange metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		exchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_exchange_requests_total",
				Help: "Total number of access token exchange requests by provider and result",
			},
			[]string{"provider", "result"},
		),
		userinfoDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "token_exchange_userinfo_duration_seconds",
				Help:    "Duration of provider userinfo calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		userinfoFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_exchange_userinfo_failures_total",
				Help: "Total number of failed provider userinfo calls",
			},
			[]string{"provider"},
		),
	}
}

// Exchange records the outcome of one exchange request.
func (c *Collector) Exchange(provider, result string) {
	if c == nil {
		return
	}
	c.exchangesTotal.WithLabelValues(provider, result).Inc()
}

// Userinfo records one provider userinfo call.
func (c *Collector) Userinfo(provider string, d time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.userinfoDuration.WithLabelValues(provider).Observe(d.Seconds())
	if failed {
		c.userinfoFailures.WithLabelValues(provider).Inc()
	}
}
