package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the booking counters exported at /metrics.
type Metrics struct {
	Attempts *prometheus.CounterVec
	Booked   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_booking_attempts_total",
			Help: "Seat booking attempts by terminal outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		Booked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bus_seats_booked",
			Help: "Seats booked on the bus as of the last read or confirmed booking.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Attempts, m.Booked)
	}
	return m
}

func (m *Metrics) attempt(outcome, reason string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) booked(n int) {
	if m == nil {
		return
	}
	m.Booked.Set(float64(n))
}
