package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/opd-ai/go-leaksim/pkg/event"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/logging"
	"github.com/opd-ai/go-leaksim/pkg/resource"
)

// ErrDispatcherStopped is recorded for detections that arrive after Wait
var ErrDispatcherStopped = errors.New("notify: dispatcher stopped")

// Dispatcher turns LeakDetected events into detached sends. The publisher
// never waits on the network.
type Dispatcher struct {
	sender  Sender
	journal *Journal
	manager *resource.Manager
	logger  *logging.Logger
	sem     *semaphore.Weighted
	now     func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	sub     *event.Subscription
	stopped bool
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithJournal records attempts into j instead of a private journal
func WithJournal(j *Journal) DispatcherOption {
	return func(d *Dispatcher) { d.journal = j }
}

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(l *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l.WithComponent("dispatcher") }
}

// WithMaxInFlight bounds concurrent requests to the sink
func WithMaxInFlight(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewDispatcher creates a dispatcher that sends through sender on goroutines
// owned by manager.
func NewDispatcher(sender Sender, manager *resource.Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		journal: NewJournal(),
		manager: manager,
		logger:  logging.Discard(),
		sem:     semaphore.NewWeighted(16),
		now:     time.Now,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start subscribes to LeakDetected on bus. Sends keep running after ctx is
// cancelled so that Wait can drain them; each request is still bounded by
// the client timeout.
func (d *Dispatcher) Start(ctx context.Context, bus *event.Bus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sub != nil {
		return fmt.Errorf("dispatcher already started")
	}
	if d.stopped {
		return ErrDispatcherStopped
	}
	d.ctx = context.WithoutCancel(ctx)
	d.sub = bus.Subscribe(event.LeakDetected, d.handle)
	return nil
}

// Journal returns the journal attempts are recorded into
func (d *Dispatcher) Journal() *Journal {
	return d.journal
}

func (d *Dispatcher) handle(e event.Event) {
	le, ok := e.(*event.LeakEvent)
	if !ok {
		return
	}
	leakID, location := le.LeakID, le.Location

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.record(leakID, location, 0, ErrDispatcherStopped)
		return
	}
	d.wg.Add(1)
	ctx := d.ctx
	d.mu.Unlock()

	err := d.manager.StartGoroutine(ctx, "notify-leak", func(ctx context.Context) {
		defer d.wg.Done()
		d.send(ctx, leakID, location)
	})
	if err != nil {
		d.wg.Done()
		d.logger.Warn(ctx, "Leak notification dropped", "leak_id", leakID, "error", err.Error())
		d.record(leakID, location, 0, err)
	}
}

func (d *Dispatcher) send(ctx context.Context, leakID uint64, location geometry.Point) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.record(leakID, location, 0, err)
		return
	}
	defer d.sem.Release(1)

	code, err := d.sender.Send(ctx, location)
	if err != nil {
		d.logger.Error(ctx, "Leak notification failed", err,
			"leak_id", leakID,
			"x", location.X,
			"y", location.Y,
		)
	} else {
		d.logger.Info(ctx, "Leak notification sent",
			"leak_id", leakID,
			"x", location.X,
			"y", location.Y,
			"code", code,
		)
	}
	d.record(leakID, location, code, err)
}

func (d *Dispatcher) record(leakID uint64, location geometry.Point, code int, err error) {
	r := Record{
		LeakID:   leakID,
		Location: location,
		Status:   StatusSent,
		Code:     code,
		At:       d.now(),
	}
	if err != nil {
		r.Err = err.Error()
		r.Status = StatusFailed
		if errors.Is(err, ErrDispatcherStopped) || errors.Is(err, resource.ErrGoroutineLimit) || errors.Is(err, resource.ErrShuttingDown) {
			r.Status = StatusDropped
		}
	}
	d.journal.Append(r)
}

// Wait unsubscribes and blocks until in-flight sends finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	sub := d.sub
	d.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification drain: %w", ctx.Err())
	}
}
