package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/event"
)

func newTestDispatcher() Dispatcher {
	return NewDispatcher(WithLogger(zap.NewNop()))
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("runs handlers in registration order", func(t *testing.T) {
		d := newTestDispatcher()
		var order []string
		var mu sync.Mutex

		d.SubscribeNamed(event.TypeBatchIssued, "first", func(ctx context.Context, evt *event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, "first")
			return nil
		})
		d.SubscribeNamed(event.TypeBatchIssued, "second", func(ctx context.Context, evt *event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, "second")
			return nil
		})

		err := d.Dispatch(ctx, event.NewEvent(event.TypeBatchIssued, "INV-1", nil))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("handlers ran in order %v", order)
		}
	})

	t.Run("first handler error stops the chain", func(t *testing.T) {
		d := newTestDispatcher()
		handlerErr := errors.New("boom")
		var secondRan bool

		d.SubscribeNamed(event.TypeBatchIssued, "failing", func(ctx context.Context, evt *event.Event) error {
			return handlerErr
		})
		d.SubscribeNamed(event.TypeBatchIssued, "after", func(ctx context.Context, evt *event.Event) error {
			secondRan = true
			return nil
		})

		err := d.Dispatch(ctx, event.NewEvent(event.TypeBatchIssued, "INV-1", nil))
		if !errors.Is(err, handlerErr) {
			t.Errorf("Dispatch() error = %v, want wrapped handler error", err)
		}
		if secondRan {
			t.Error("second handler ran after first failed")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		d := newTestDispatcher()
		d.Subscribe(event.TypeRunFailed, func(ctx context.Context, evt *event.Event) error {
			panic("handler exploded")
		})

		err := d.Dispatch(ctx, event.NewEvent(event.TypeRunFailed, "", nil))
		if err == nil {
			t.Fatal("Dispatch() did not surface the panic as an error")
		}
	})

	t.Run("no handlers is a no-op", func(t *testing.T) {
		d := newTestDispatcher()
		if err := d.Dispatch(ctx, event.NewEvent(event.TypeRunPreviewed, "", nil)); err != nil {
			t.Errorf("Dispatch() error = %v", err)
		}
	})

	t.Run("events only reach their own type's handlers", func(t *testing.T) {
		d := newTestDispatcher()
		var calls int32
		d.Subscribe(event.TypeBatchIssued, func(ctx context.Context, evt *event.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		if err := d.Dispatch(ctx, event.NewEvent(event.TypeRunPreviewed, "", nil)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Error("handler received an event of another type")
		}
	})
}

func TestDispatcher_DispatchAsync(t *testing.T) {
	ctx := context.Background()

	t.Run("handlers complete before Close returns", func(t *testing.T) {
		d := newTestDispatcher()
		var calls int32

		d.Subscribe(event.TypeBatchIssued, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&calls, 1)
			return nil
		})

		d.DispatchAsync(ctx, event.NewEvent(event.TypeBatchIssued, "INV-1", nil))
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if atomic.LoadInt32(&calls) != 1 {
			t.Errorf("handler calls = %d, want 1", calls)
		}
	})

	t.Run("async handler errors do not propagate", func(t *testing.T) {
		d := newTestDispatcher()
		d.Subscribe(event.TypeLedgerPartialFailure, func(ctx context.Context, evt *event.Event) error {
			return errors.New("listener failure")
		})

		d.DispatchAsync(ctx, event.NewEvent(event.TypeLedgerPartialFailure, "INV-1", nil))
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
}

func TestDispatcher_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatch after close fails", func(t *testing.T) {
		d := newTestDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if err := d.Dispatch(ctx, event.NewEvent(event.TypeBatchIssued, "INV-1", nil)); err == nil {
			t.Error("Dispatch() after Close() did not fail")
		}
	})

	t.Run("async dispatch after close is dropped", func(t *testing.T) {
		d := newTestDispatcher()
		var calls int32
		d.Subscribe(event.TypeBatchIssued, func(ctx context.Context, evt *event.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		d.DispatchAsync(ctx, event.NewEvent(event.TypeBatchIssued, "INV-1", nil))

		if atomic.LoadInt32(&calls) != 0 {
			t.Error("handler ran after dispatcher close")
		}
	})

	t.Run("double close fails", func(t *testing.T) {
		d := newTestDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := d.Close(); err == nil {
			t.Error("second Close() did not fail")
		}
	})
}
