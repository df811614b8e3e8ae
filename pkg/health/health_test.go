package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// stubCheck implements HealthCheck for testing
type stubCheck struct {
	name  string
	err   error
	delay time.Duration
}

func (s *stubCheck) Name() string {
	return s.name
}

func (s *stubCheck) Check(ctx context.Context) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func TestHealthChecker_AddAndRemove(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "a"})
	hc.AddCheck(&stubCheck{name: "a", err: errors.New("replaced")})
	hc.AddCheck(&stubCheck{name: "b"})

	status := hc.CheckHealth(context.Background())
	if len(status.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(status.Checks))
	}
	if status.Checks["a"].Message != "replaced" {
		t.Errorf("check a was not replaced: %+v", status.Checks["a"])
	}

	hc.RemoveCheck("a")
	status = hc.CheckHealth(context.Background())
	if _, ok := status.Checks["a"]; ok {
		t.Error("check a still present after removal")
	}
	if status.Status != "healthy" {
		t.Errorf("status = %s, want healthy", status.Status)
	}
}

func TestHealthChecker_CheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		checks   []*stubCheck
		expected string
	}{
		{"no checks", nil, "healthy"},
		{"all healthy", []*stubCheck{{name: "a"}, {name: "b"}}, "healthy"},
		{"one failing", []*stubCheck{{name: "a"}, {name: "b", err: errors.New("down")}}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for _, c := range tt.checks {
				hc.AddCheck(c)
			}

			status := hc.CheckHealth(context.Background())
			if status.Status != tt.expected {
				t.Errorf("status = %s, want %s", status.Status, tt.expected)
			}
			for _, c := range tt.checks {
				got := status.Checks[c.name]
				if (c.err != nil) != (got.Status == "unhealthy") {
					t.Errorf("check %s reported %+v", c.name, got)
				}
			}
		})
	}
}

func TestHealthChecker_CheckHealthWithTimeout(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "slow", delay: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := hc.CheckHealth(ctx)
	if status.Checks["slow"].Status != "unhealthy" {
		t.Errorf("slow check should time out, got %+v", status.Checks["slow"])
	}
}

func TestHealthChecker_Handler(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "sim"})
	server := httptest.NewServer(hc.Handler())
	defer server.Close()

	tests := []struct {
		path   string
		code   int
		status string
	}{
		{"/health/live", http.StatusOK, "alive"},
		{"/health/ready", http.StatusOK, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.code {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.code)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s", ct)
			}
			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.status {
				t.Errorf("status = %s, want %s", body.Status, tt.status)
			}
		})
	}
}

func TestHealthChecker_ReadinessUnavailable(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&stubCheck{name: "notifier", err: errors.New("circuit open")})

	w := httptest.NewRecorder()
	hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", w.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Checks["notifier"].Message != "circuit open" {
		t.Errorf("unexpected body %+v", status)
	}
}

func TestSimulationHealthCheck(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastTick time.Time
		wantErr  bool
	}{
		{"never ticked", time.Time{}, true},
		{"recent tick", now.Add(-100 * time.Millisecond), false},
		{"stalled", now.Add(-5 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewSimulationHealthCheck(func() time.Time { return tt.lastTick }, time.Second)
			check.now = func() time.Time { return now }

			if check.Name() != "simulation" {
				t.Errorf("Name() = %s", check.Name())
			}
			if err := check.Check(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotifierHealthCheck(t *testing.T) {
	tests := []struct {
		state   string
		wantErr bool
	}{
		{"closed", false},
		{"half-open", false},
		{"open", true},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			check := NewNotifierHealthCheck(func() string { return tt.state })
			if check.Name() != "notifier" {
				t.Errorf("Name() = %s", check.Name())
			}
			if err := check.Check(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
