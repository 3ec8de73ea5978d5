package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/podhive/access-engine/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var handled atomic.Int32
	d.Subscribe(event.TypeProposalAccepted, func(ctx context.Context, evt *event.Event) error {
		handled.Add(1)
		return nil
	})
	d.Subscribe(event.TypeProposalAccepted, func(ctx context.Context, evt *event.Event) error {
		handled.Add(1)
		return nil
	})

	evt := event.NewEvent(event.TypeProposalAccepted, "prop-1", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if handled.Load() != 2 {
		t.Errorf("handled = %d, want 2", handled.Load())
	}
}

func TestDispatcher_DispatchReturnsHandlerError(t *testing.T) {
	d := NewDispatcher(WithLogger(&mockLogger{}))
	defer d.Close()

	wantErr := errors.New("push failed")
	d.SubscribeNamed(event.TypeProposalRejected, "push", func(ctx context.Context, evt *event.Event) error {
		return wantErr
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeProposalRejected, "prop-1", nil))
	if !errors.Is(err, wantErr) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestDispatcher_DispatchAsync(t *testing.T) {
	d := NewDispatcher(WithWorkers(2), WithQueueSize(16))

	var handled atomic.Int32
	done := make(chan struct{})
	d.Subscribe(event.TypeProposalRequested, func(ctx context.Context, evt *event.Event) error {
		if handled.Add(1) == 3 {
			close(done)
		}
		return nil
	})

	for i := 0; i < 3; i++ {
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeProposalRequested, "prop-1", nil))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestDispatcher_AsyncHandlerErrorIsSwallowed(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	ran := make(chan struct{})
	d.SubscribeNamed(event.TypeProposalCanceled, "inbox", func(ctx context.Context, evt *event.Event) error {
		defer close(ran)
		return errors.New("inbox append failed")
	})

	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeProposalCanceled, "prop-1", nil))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler did not run")
	}

	d.Close()

	if logger.ErrorCount() == 0 {
		t.Error("expected handler error to be logged")
	}
}

func TestDispatcher_SaturatedQueueDropsNotBlocks(t *testing.T) {
	logger := &mockLogger{}
	block := make(chan struct{})

	d := NewDispatcher(WithLogger(logger), WithWorkers(1), WithQueueSize(1))
	d.Subscribe(event.TypeProposalRequested, func(ctx context.Context, evt *event.Event) error {
		<-block
		return nil
	})

	// First event occupies the worker, second fills the queue; the rest must
	// be dropped without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.DispatchAsync(context.Background(), event.NewEvent(event.TypeProposalRequested, "prop-1", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("DispatchAsync blocked on a saturated queue")
	}

	close(block)
	d.Close()

	if logger.ErrorCount() == 0 {
		t.Error("expected dropped events to be logged")
	}
}

func TestDispatcher_PanicRecovery(t *testing.T) {
	d := NewDispatcher(WithLogger(&mockLogger{}))
	defer d.Close()

	d.Subscribe(event.TypeProposalAccepted, func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeProposalAccepted, "prop-1", nil))
	if err == nil {
		t.Error("Dispatch() should surface recovered panic as error")
	}
}

func TestDispatcher_CloseTwice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should return error")
	}
}

func TestDispatcher_DispatchAfterClose(t *testing.T) {
	d := NewDispatcher()
	d.Close()

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeProposalAccepted, "prop-1", nil))
	if err == nil {
		t.Error("Dispatch() after Close() should return error")
	}

	// Must not panic
	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeProposalAccepted, "prop-1", nil))
}

func TestDispatcher_ConcurrentDispatchAndClose(t *testing.T) {
	d := NewDispatcher(WithQueueSize(4), WithWorkers(1))
	d.Subscribe(event.TypeProposalAccepted, func(ctx context.Context, evt *event.Event) error {
		return nil
	})

	// Dispatchers racing Close must never send on the closed queue
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.DispatchAsync(context.Background(), event.NewEvent(event.TypeProposalAccepted, "prop-1", nil))
			}
		}()
	}

	time.Sleep(time.Millisecond)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	wg.Wait()
}

func TestDispatcher_ConcurrentSubscribe(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	const n = 16
	var wg sync.WaitGroup
	var handled atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Subscribe(event.TypeProposalRejected, func(ctx context.Context, evt *event.Event) error {
				handled.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeProposalRejected, "prop-1", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if handled.Load() != n {
		t.Errorf("handled = %d, want %d", handled.Load(), n)
	}
}
