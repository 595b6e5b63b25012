package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"chat-store/internal/logger"
	"chat-store/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter publishes audit records for state changes that callers may need to
// reconcile later, such as contact teardown.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	log         *logger.Logger
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	Action        string       `json:"action"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level      string            `json:"level"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// AuditEvent is one record to emit.
type AuditEvent struct {
	Action     string
	Level      string
	Text       string
	RequestID  string
	UserID     *string
	Attributes map[string]string
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, log *logger.Logger) *AuditEmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log.With("component", "audit"),
		now:         time.Now,
	}
}

// Emit publishes the event. Failures are logged and counted, never returned:
// the state change being audited has already committed.
func (e *AuditEmitter) Emit(ctx context.Context, ev AuditEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if ev.Level == "" {
		ev.Level = "INFO"
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		Action:        ev.Action,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     ev.RequestID,
		UserID:        ev.UserID,
		Payload: AuditPayload{
			Level:      ev.Level,
			Text:       ev.Text,
			Attributes: ev.Attributes,
		},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		envelope.TraceID = sc.TraceID().String()
	}

	e.log.Debug("audit emit", "action", ev.Action, "request_id", ev.RequestID, "text", ev.Text)
	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		observability.IncAuditPublishError()
		e.log.Warn("audit publish failed", "action", ev.Action, "error", err)
	}
}
