package h2

import (
	"testing"
	"time"
)

func TestWindowConsumeAndIncrease(t *testing.T) {
	w := newWindow(100, nil)

	if err := w.Consume(60); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := w.Size(); got != 40 {
		t.Fatalf("size after consume: got %d want 40", got)
	}

	if overflow := w.IncreaseBy(10); overflow {
		t.Fatalf("unexpected overflow")
	}
	if got := w.Size(); got != 50 {
		t.Fatalf("size after increase: got %d want 50", got)
	}
}

func TestWindowIncreaseOverflow(t *testing.T) {
	w := newWindow(uint32(maxWindowSize), nil)
	if overflow := w.IncreaseBy(1); !overflow {
		t.Fatalf("expected overflow past maxWindowSize")
	}
}

func TestWindowChainedConsumeBlocksOnParent(t *testing.T) {
	parent := newWindow(5, nil)
	child := newWindow(100, parent)

	done := make(chan error, 1)
	go func() { done <- child.Consume(10) }()

	select {
	case <-done:
		t.Fatalf("consume should have blocked on parent quota")
	case <-time.After(20 * time.Millisecond):
	}

	parent.IncreaseBy(10)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("consume: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("consume never unblocked after parent increase")
	}

	if got := parent.Size(); got != 5 {
		t.Fatalf("parent size: got %d want 5", got)
	}
	if got := child.Size(); got != 90 {
		t.Fatalf("child size: got %d want 90", got)
	}
}

func TestWindowCloseUnblocksWaiters(t *testing.T) {
	w := newWindow(0, nil)

	done := make(chan error, 1)
	go func() { done <- w.Consume(1) }()

	time.Sleep(20 * time.Millisecond)
	w.Close()

	select {
	case err := <-done:
		if err != ErrStreamClosed {
			t.Fatalf("expected ErrStreamClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("consume never unblocked after close")
	}
}

func TestWindowSetInitialSize(t *testing.T) {
	w := newWindow(100, nil)
	w.SetInitialSize(100, 40) // peer lowered SETTINGS_INITIAL_WINDOW_SIZE

	if got := w.Size(); got != 40 {
		t.Fatalf("size after lowering initial: got %d want 40", got)
	}
}
