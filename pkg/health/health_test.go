package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	checker := NewChecker()
	checker.Register("up", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUp}
	})
	checker.Register("degraded", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded, Message: "slow"}
	})

	report := checker.Run(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("overall status = %s, want degraded", report.Status)
	}
	if len(report.Components) != 2 {
		t.Errorf("components = %d, want 2", len(report.Components))
	}
}

func TestRunDownWins(t *testing.T) {
	checker := NewChecker()
	checker.Register("down", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDown}
	})

	if report := checker.Run(context.Background()); report.Status != StatusDown {
		t.Errorf("overall status = %s, want down", report.Status)
	}
}

func TestReadyHandlerStatusCodes(t *testing.T) {
	checker := NewChecker()
	checker.Register("ok", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUp}
	})

	rec := httptest.NewRecorder()
	checker.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	checker.Register("bad", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDown}
	})
	rec = httptest.NewRecorder()
	checker.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
}
