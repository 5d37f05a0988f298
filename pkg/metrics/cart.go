package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations by operation.
type CartMetrics struct {
	mutations  *prometheus.CounterVec
	loadResets prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	loadResets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_load_resets_total",
		Help: "Persisted carts discarded because they could not be decoded.",
	})
	reg.MustRegister(mutations, loadResets)
	return &CartMetrics{mutations: mutations, loadResets: loadResets}
}

func (m *CartMetrics) IncMutation(op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *CartMetrics) IncLoadReset() {
	if m == nil || m.loadResets == nil {
		return
	}
	m.loadResets.Inc()
}
