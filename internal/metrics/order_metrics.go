package metrics

import (
	"fmt"

	"ebake/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

// 注文確定とステータス遷移のメトリクス
type OrderMetrics struct {
	placed      prometheus.Counter
	rejected    *prometheus.CounterVec
	orderAmount prometheus.Histogram
	orderLines  prometheus.Histogram
	transitions *prometheus.CounterVec
}

func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		placed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ebake_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		rejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ebake_orders_rejected_total",
			Help: "Total number of order placements rejected, by error kind",
		}, []string{"kind"}),
		orderAmount: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ebake_order_amount",
			Help:    "Total amount of placed orders",
			Buckets: []float64{250, 500, 1000, 2000, 3500, 5000, 10000, 25000},
		}),
		orderLines: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ebake_order_line_items",
			Help:    "Number of line items per placed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ebake_order_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"from", "to"}),
	}
}

func (m *OrderMetrics) OrderPlaced(total float64, lines int) {
	m.placed.Inc()
	m.orderAmount.Observe(total)
	m.orderLines.Observe(float64(lines))
}

func (m *OrderMetrics) OrderRejected(kind string) {
	m.rejected.WithLabelValues(kind).Inc()
}

func (m *OrderMetrics) StatusChanged(from model.OrderStatus, to model.OrderStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
