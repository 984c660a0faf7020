package observability

import (
	"log/slog"

	coreevents "tokensale/core/events"
)

// EventSink logs module events and records them in the metric registry. It is
// wired into the node as the external emitter.
type EventSink struct {
	logger *slog.Logger
}

// NewEventSink builds a sink around the given logger.
func NewEventSink(logger *slog.Logger) *EventSink {
	return &EventSink{logger: logger}
}

// Emit implements events.Emitter.
func (s *EventSink) Emit(evt coreevents.Event) {
	if evt == nil {
		return
	}
	eventType := evt.EventType()
	Metrics().EventsTotal.WithLabelValues(eventType).Inc()
	switch eventType {
	case coreevents.TypeSalePurchase:
		Metrics().Purchases.Inc()
	case coreevents.TypeScheduleClaimed:
		Metrics().Claims.Inc()
	}
	if s.logger != nil {
		s.logger.Info("module event", "type", eventType)
	}
}
