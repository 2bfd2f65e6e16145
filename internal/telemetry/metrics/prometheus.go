// Package metrics counts activity events for the Prometheus /metrics endpoint.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
)

// Emitter is an EventEmitter that increments a counter per event type.
type Emitter struct {
	events *prometheus.CounterVec
}

// NewEmitter registers staff_auth_activity_events_total on reg. Every known
// event type is pre-initialized so rates start at zero instead of appearing late.
func NewEmitter(reg prometheus.Registerer) (*Emitter, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staff_auth",
		Name:      "activity_events_total",
		Help:      "Login activity events by type.",
	}, []string{"type"})
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	for _, t := range telemetry.EventTypes {
		events.WithLabelValues(t)
	}
	return &Emitter{events: events}, nil
}

// Emit never fails.
func (e *Emitter) Emit(_ context.Context, event *telemetry.Event) error {
	if event == nil || event.Type == "" {
		return nil
	}
	e.events.WithLabelValues(event.Type).Inc()
	return nil
}
