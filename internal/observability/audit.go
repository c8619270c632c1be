package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorUserID  string `json:"actor_user_id"`
	ActorIP      string `json:"actor_ip"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return AuditEvent{
		EventVersion: 1,
		EventName:    in.EventName,
		ActorUserID:  in.ActorUserID,
		ActorIP:      ip,
		TargetType:   in.TargetType,
		TargetID:     in.TargetID,
		Action:       in.Action,
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    r.Header.Get("X-Request-Id"),
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	if e.EventVersion < 1 {
		return errors.New("audit event: event_version must be >= 1")
	}
	if e.EventName == "" {
		return errors.New("audit event: event_name is required")
	}
	if e.Action == "" {
		return errors.New("audit event: action is required")
	}
	if e.Outcome == "" {
		return errors.New("audit event: outcome is required")
	}
	return nil
}

// EmitAudit logs a structured audit event for security-relevant actions
// such as avatar changes and user deletions.
func EmitAudit(r *http.Request, in AuditInput, attrs ...any) {
	ev := BuildAuditEvent(r, in)
	fields := []any{
		"event_version", ev.EventVersion,
		"event", ev.EventName,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	}
	fields = append(fields, attrs...)
	slog.InfoContext(r.Context(), "audit", fields...)
}

// Audit emits a free-form audit line with trace correlation.
func Audit(r *http.Request, event string, attrs ...any) {
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}
