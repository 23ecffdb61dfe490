// Package health aggregates component probes into liveness and readiness
// reports. Checks are registered once at startup and the registry is
// read-only afterwards, so probe traffic needs no locking.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Status is the health state of a component or of the system overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// rank orders statuses from healthiest to worst.
func rank(s Status) int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Check probes one dependency.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth is the result of a single probe.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report aggregates every registered probe. Status is the worst component
// status observed.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker holds the probe registry.
type Checker struct {
	checks map[string]Check
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named probe. Call before serving probe traffic.
func (c *Checker) Register(name string, check Check) {
	c.checks[name] = check
}

// Run executes every probe sequentially and aggregates the results.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(c.checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for name, check := range c.checks {
		start := time.Now()
		ch := check(ctx)
		ch.Latency = time.Since(start).Round(time.Millisecond).String()
		report.Components[name] = ch
		if rank(ch.Status) > rank(report.Status) {
			report.Status = ch.Status
		}
	}
	return report
}

// LiveHandler answers liveness probes: the process is up and serving.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers readiness probes with the full component report,
// returning 503 unless every component is up.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report := c.Run(ctx)
		code := http.StatusOK
		if report.Status != StatusUp {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(report)
	}
}
