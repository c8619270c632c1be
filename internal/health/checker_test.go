package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubChecker struct {
	result CheckResult
}

func (s stubChecker) Check(context.Context) CheckResult {
	return s.result
}

func TestProbeRunnerReady(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		stubChecker{result: CheckResult{Name: "db", Healthy: true}},
		stubChecker{result: CheckResult{Name: "redis", Healthy: true}},
		stubChecker{result: CheckResult{Name: "storage", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready when every dependency is healthy")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestProbeRunnerUnreadyOnAnyFailure(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		stubChecker{result: CheckResult{Name: "db", Healthy: true}},
		stubChecker{result: CheckResult{Name: "storage", Healthy: false, Error: errors.New("bucket check failed").Error()}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready while a dependency is down")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestProbeRunnerStartupGrace(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 2*time.Second,
		stubChecker{result: CheckResult{Name: "db", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready during grace period")
	}
	if len(results) != 1 || results[0].Name != "startup_grace" {
		t.Fatalf("unexpected grace results: %+v", results)
	}
}
