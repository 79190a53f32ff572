package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the sink for all operational observations: HTTP request counts
// and latencies, business counters and the per-product stock gauge. It owns
// a private registry so no process-wide state is shared between instances,
// and emitting into it can never fail a request.
type Metrics struct {
	registry *prometheus.Registry

	RequestCount   *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	OrdersCreated  prometheus.Counter
	OrdersPaid     prometheus.Counter
	OrderValue     prometheus.Histogram
	ProductStock   *prometheus.GaugeVec
}

// New creates a Metrics sink with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "app_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "app_request_latency_seconds",
			Help: "Latency in seconds",
		}, []string{"endpoint"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total orders created",
		}),
		OrdersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_paid_total",
			Help: "Total orders paid",
		}),
		OrderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "order_value_histogram",
			Help: "Histogram of order total values",
		}),
		ProductStock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "product_stock",
			Help: "Stock level for each product",
		}, []string{"product_id"}),
	}

	m.registry.MustRegister(
		m.RequestCount,
		m.RequestLatency,
		m.OrdersCreated,
		m.OrdersPaid,
		m.OrderValue,
		m.ProductStock,
	)

	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, duration time.Duration) {
	m.RequestCount.WithLabelValues(method, endpoint).Inc()
	m.RequestLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// OrderCreated records a committed order and its total value.
func (m *Metrics) OrderCreated(totalAmount float64) {
	m.OrdersCreated.Inc()
	m.OrderValue.Observe(totalAmount)
}

// OrderPaid records a successful pending -> paid transition.
func (m *Metrics) OrderPaid() {
	m.OrdersPaid.Inc()
}

// SetProductStock sets the stock gauge for a product.
func (m *Metrics) SetProductStock(productID string, stock int) {
	m.ProductStock.WithLabelValues(productID).Set(float64(stock))
}

// RemoveProductStock drops the gauge entry for a deleted product so the
// exposition no longer implies the product exists.
func (m *Metrics) RemoveProductStock(productID string) {
	m.ProductStock.DeleteLabelValues(productID)
}

// Handler returns the text exposition endpoint for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
