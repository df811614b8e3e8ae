// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports the resource manager unhealthy when heap or
// goroutine usage nears its limit.
type HealthCheck struct {
	manager *Manager
}

// NewHealthCheck creates a new health check for the resource manager.
func NewHealthCheck(manager *Manager) *HealthCheck {
	return &HealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (r *HealthCheck) Name() string {
	return "resource"
}

// Check verifies that resource usage is within acceptable limits.
func (r *HealthCheck) Check(ctx context.Context) error {
	if err := r.manager.CheckMemoryUsage(); err != nil {
		return err
	}

	stats := r.manager.Stats()
	threshold := int64(float64(stats.MaxGoroutines) * 0.8)
	if stats.GoroutineCount > threshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.GoroutineCount, threshold, stats.MaxGoroutines)
	}
	return nil
}
