// Package health serves liveness and readiness probes for a running
// simulation and aggregates component checks behind them.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheck is a single named probe
type HealthCheck interface {
	Name() string
	// Check returns nil when the component is healthy
	Check(ctx context.Context) error
}

// HealthStatus is the aggregated result served by the readiness probe
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker runs registered checks on demand
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers check, replacing any check with the same name
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs every check concurrently. The result is "healthy" only
// when all of them pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := make([]HealthCheck, 0, len(hc.checks))
	for _, c := range hc.checks {
		checks = append(checks, c)
	}
	hc.mu.RUnlock()

	results := make([]ComponentHealth, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = ComponentHealth{Status: "healthy"}
			if err := check.Check(ctx); err != nil {
				results[i] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			}
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth, len(checks)),
	}
	for i, check := range checks {
		status.Checks[check.Name()] = results[i]
		if results[i].Status != "healthy" {
			status.Status = "unhealthy"
		}
	}
	return status
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler answers 200 while the process can serve requests
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs all checks and answers 503 if any of them fails
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)
	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// Handler returns a mux serving /health/live and /health/ready
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)
	return mux
}

// SimulationHealthCheck fails when the simulation loop has stopped ticking.
type SimulationHealthCheck struct {
	lastTick func() time.Time
	maxStall time.Duration
	now      func() time.Time
}

// NewSimulationHealthCheck creates a check that requires a tick within maxStall.
func NewSimulationHealthCheck(lastTick func() time.Time, maxStall time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		lastTick: lastTick,
		maxStall: maxStall,
		now:      time.Now,
	}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that the simulation has ticked recently.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	last := s.lastTick()
	if last.IsZero() {
		return fmt.Errorf("simulation has not started")
	}
	if stall := s.now().Sub(last); stall > s.maxStall {
		return fmt.Errorf("simulation stalled for %v (limit %v)", stall.Round(time.Millisecond), s.maxStall)
	}
	return nil
}

// NotifierHealthCheck fails while leak notifications cannot be delivered.
type NotifierHealthCheck struct {
	state func() string
}

// NewNotifierHealthCheck creates a check over a circuit breaker state name.
// Only "open" is unhealthy; "half-open" is still probing the sink.
func NewNotifierHealthCheck(state func() string) *NotifierHealthCheck {
	return &NotifierHealthCheck{state: state}
}

// Name returns the name of this health check.
func (n *NotifierHealthCheck) Name() string {
	return "notifier"
}

// Check verifies that the notification circuit is not open.
func (n *NotifierHealthCheck) Check(ctx context.Context) error {
	if state := n.state(); state == "open" {
		return fmt.Errorf("notification sink circuit is %s", state)
	}
	return nil
}
