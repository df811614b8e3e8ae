// pkg/resource/manager.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/logging"
)

var (
	// ErrGoroutineLimit is returned when a task would exceed MaxGoroutines
	ErrGoroutineLimit = errors.New("resource: goroutine limit exceeded")
	// ErrShuttingDown is returned for tasks started after Shutdown
	ErrShuttingDown = errors.New("resource: manager is shutting down")
)

// Limits bounds the background work a Manager accepts
type Limits struct {
	MaxMemoryMB   int64
	MaxGoroutines int64
	CheckInterval time.Duration
}

// LimitsFromConfig builds Limits from the simulation configuration
func LimitsFromConfig(cfg config.ResourceConfig) Limits {
	return Limits{
		MaxMemoryMB:   int64(cfg.MaxMemoryMB),
		MaxGoroutines: int64(cfg.MaxGoroutines),
		CheckInterval: 10 * time.Second,
	}
}

// Manager tracks detached goroutines, recovers their panics and lets
// shutdown wait for them to drain. It also samples heap usage.
type Manager struct {
	limits Limits
	logger *logging.Logger

	goroutines    atomic.Int64
	memoryUsageMB atomic.Int64
	wg            sync.WaitGroup

	mu              sync.Mutex
	running         bool
	closed          bool
	cancel          context.CancelFunc
	done            chan struct{}
	lastMemoryCheck time.Time
}

// NewManager creates a resource manager. A nil logger discards output.
func NewManager(limits Limits, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	if limits.CheckInterval <= 0 {
		limits.CheckInterval = 10 * time.Second
	}
	return &Manager{
		limits: limits,
		logger: logger.WithComponent("resource"),
	}
}

// Start begins the periodic memory check loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("resource manager already running")
	}
	if m.closed {
		return ErrShuttingDown
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.monitoringLoop(loopCtx, m.done)

	m.logger.Info(ctx, "Resource manager started",
		"max_memory_mb", m.limits.MaxMemoryMB,
		"max_goroutines", m.limits.MaxGoroutines,
		"check_interval", m.limits.CheckInterval,
	)
	return nil
}

// StartGoroutine runs fn on a tracked goroutine. It fails without starting
// anything when the goroutine limit is reached or shutdown has begun.
func (m *Manager) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrShuttingDown
	}
	if !m.reserve() {
		m.mu.Unlock()
		current := m.goroutines.Load()
		m.logger.Warn(ctx, "Goroutine limit exceeded",
			"current", current,
			"limit", m.limits.MaxGoroutines,
			"name", name,
		)
		return fmt.Errorf("%w: %d/%d", ErrGoroutineLimit, current, m.limits.MaxGoroutines)
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.goroutines.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error(ctx, "Goroutine panic", fmt.Errorf("panic: %v", r), "name", name)
			}
		}()

		fn(ctx)
	}()

	return nil
}

func (m *Manager) reserve() bool {
	for {
		current := m.goroutines.Load()
		if current >= m.limits.MaxGoroutines {
			return false
		}
		if m.goroutines.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Wait blocks until every tracked goroutine has returned or ctx ends. Call
// it once producers have stopped starting new work.
func (m *Manager) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %d goroutines still running: %w", m.GoroutineCount(), ctx.Err())
	}
}

// Shutdown refuses new work, stops monitoring and drains tracked goroutines.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	wasRunning := m.running
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if wasRunning {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn(ctx, "Resource monitoring loop did not stop gracefully")
		}
	}

	if err := m.Wait(ctx); err != nil {
		m.logger.Warn(ctx, "Shutdown timeout exceeded with goroutines still running",
			"remaining", m.GoroutineCount(),
		)
		return err
	}
	m.logger.Info(ctx, "All tracked goroutines finished")
	return nil
}

// CheckMemoryUsage samples heap usage against the limit.
func (m *Manager) CheckMemoryUsage() error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	currentMB := int64(ms.Alloc / 1024 / 1024)
	m.memoryUsageMB.Store(currentMB)
	m.mu.Lock()
	m.lastMemoryCheck = time.Now()
	m.mu.Unlock()

	if currentMB > m.limits.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.limits.MaxMemoryMB)
	}
	return nil
}

// GoroutineCount returns the current number of tracked goroutines.
func (m *Manager) GoroutineCount() int64 {
	return m.goroutines.Load()
}

// Stats returns current resource usage statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	last := m.lastMemoryCheck
	m.mu.Unlock()

	return Stats{
		GoroutineCount:  m.GoroutineCount(),
		MaxGoroutines:   m.limits.MaxGoroutines,
		MemoryUsageMB:   m.memoryUsageMB.Load(),
		MaxMemoryMB:     m.limits.MaxMemoryMB,
		LastMemoryCheck: last,
	}
}

// Stats contains resource usage statistics.
type Stats struct {
	GoroutineCount  int64     `json:"goroutine_count"`
	MaxGoroutines   int64     `json:"max_goroutines"`
	MemoryUsageMB   int64     `json:"memory_usage_mb"`
	MaxMemoryMB     int64     `json:"max_memory_mb"`
	LastMemoryCheck time.Time `json:"last_memory_check"`
}

func (m *Manager) monitoringLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.limits.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.CheckMemoryUsage(); err != nil {
				m.logger.Error(ctx, "Memory limit exceeded", err)
			}
			m.logger.Debug(ctx, "Resource usage check",
				"goroutines", m.GoroutineCount(),
				"memory_mb", m.memoryUsageMB.Load(),
			)
		case <-ctx.Done():
			return
		}
	}
}
