// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the reservation workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/room-reservations/internal/booking"
)

const namespace = "roomreservations"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	reservationsCreated *prometheus.CounterVec
	reservationsDeleted *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	slotConflicts       *prometheus.CounterVec
	misalignedSlots     *prometheus.CounterVec
}

// New builds a Recorder on a fresh registry. Go runtime and process
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		reservationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Reservations created by initial status",
		}, []string{"status"}),
		reservationsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_deleted_total",
			Help:      "Reservations deleted by status at deletion",
		}, []string{"status"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_status_transitions_total",
			Help:      "Reservation status changes applied by administrators",
		}, []string{"from", "to"}),
		slotConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_slot_conflicts_total",
			Help:      "Requests refused because an accepted reservation holds the slot",
		}, []string{"operation"}),
		misalignedSlots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_misaligned_slots_total",
			Help:      "Reservation times that do not start an hourly grid slot",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveHTTPRequest records an HTTP request metric.
func (r *Recorder) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ReservationCreated counts a new reservation.
func (r *Recorder) ReservationCreated(status booking.Status) {
	r.reservationsCreated.WithLabelValues(status.String()).Inc()
}

// ReservationDeleted counts a removed reservation.
func (r *Recorder) ReservationDeleted(status booking.Status) {
	r.reservationsDeleted.WithLabelValues(status.String()).Inc()
}

// StatusTransitioned counts an applied status change.
func (r *Recorder) StatusTransitioned(transition booking.Transition) {
	r.statusTransitions.WithLabelValues(transition.From.String(), transition.To.String()).Inc()
}

// SlotConflict counts a refused double booking.
func (r *Recorder) SlotConflict(operation string) {
	r.slotConflicts.WithLabelValues(operation).Inc()
}

// MisalignedSlot counts a reservation time off the slot grid.
func (r *Recorder) MisalignedSlot(strict bool) {
	outcome := "warned"
	if strict {
		outcome = "rejected"
	}
	r.misalignedSlots.WithLabelValues(outcome).Inc()
}
