package observability

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/api/v1/users/7", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "127.0.0.1:12345"

	ev := BuildAuditEvent(req, AuditInput{
		EventName:   "user.delete",
		ActorUserID: "42",
		TargetType:  "user",
		TargetID:    "7",
		Action:      "delete",
		Outcome:     "success",
		Reason:      "admin_request",
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.EventName == "" || ev.ActorUserID == "" || ev.ActorIP == "" || ev.TargetType == "" || ev.TargetID == "" || ev.Action == "" || ev.Outcome == "" || ev.Reason == "" || ev.RequestID == "" || ev.TS == "" {
		t.Fatalf("expected required fields present: %+v", ev)
	}
	if ev.ActorIP != "127.0.0.1" {
		t.Fatalf("expected host-only actor ip, got %s", ev.ActorIP)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		ActorUserID:  "42",
		ActorIP:      "127.0.0.1",
		TargetType:   "user",
		TargetID:     "42",
		Action:       "delete",
		Outcome:      "success",
		Reason:       "ok",
		RequestID:    "req-1",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_name")
	}
}
