package h2

import "sync"

// window is a flow-control window (RFC 7540 §6.9): a signed counter that
// starts at the negotiated initial size and is decremented as DATA is
// sent/received and incremented by WINDOW_UPDATE. The connection window
// and every stream window are each one of these; a stream's window is
// chained to the connection's so that consuming stream quota also
// consumes connection quota, and blocking waits on whichever is tighter.
//
// https://tools.ietf.org/html/rfc7540#section-6.9.1
type window struct {
	mu   sync.Mutex
	cond *sync.Cond
	size int64

	// parent is the connection window a stream window is chained to;
	// nil for the connection window itself.
	parent *window

	closed bool
}

func newWindow(initial uint32, parent *window) *window {
	w := &window{size: int64(initial), parent: parent}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Size returns the current window size. It may be briefly negative
// immediately after the peer lowers SETTINGS_INITIAL_WINDOW_SIZE below
// data already in flight (RFC 7540 §6.9.2).
func (w *window) Size() int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clamp()
}

func (w *window) clamp() int32 {
	if w.size > int64(maxWindowSize) {
		return maxWindowSize
	}
	if w.size < -int64(maxWindowSize) {
		return -maxWindowSize
	}
	return int32(w.size)
}

// Close unblocks every goroutine waiting in Consume; used when the
// stream is reset or the connection is closing.
func (w *window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cond.Broadcast()
}

// IncreaseBy applies an additive WINDOW_UPDATE increment. A resulting
// overflow past 2^31-1 is the caller's responsibility to turn into a
// FLOW_CONTROL_ERROR (spec.md §4.5) — IncreaseBy itself reports it.
func (w *window) IncreaseBy(n uint32) (overflow bool) {
	w.mu.Lock()
	defer func() {
		w.mu.Unlock()
		w.cond.Broadcast()
	}()

	w.size += int64(n)
	return w.size > int64(maxWindowSize)
}

// SetInitialSize adjusts the window by the delta between an old and a
// new SETTINGS_INITIAL_WINDOW_SIZE, per RFC 7540 §6.9.2: every existing
// stream window shifts by the same signed amount.
func (w *window) SetInitialSize(oldInitial, newInitial uint32) {
	w.mu.Lock()
	w.size += int64(newInitial) - int64(oldInitial)
	w.mu.Unlock()
	w.cond.Broadcast()
}

// Consume blocks until n bytes are available in both w and (if chained)
// its parent, deducting from both atomically with respect to other
// Consume calls on the same window. It returns ErrStreamClosed if Close
// is called while waiting.
func (w *window) Consume(n uint32) error {
	if w.parent != nil {
		// Acquire the tighter of the two by always taking the stream
		// window's lock first, then the connection's; this fixed
		// ordering avoids deadlocking against a concurrent consume on
		// a sibling stream.
		return w.consumeChained(n)
	}
	return w.consumeSelf(n)
}

func (w *window) consumeSelf(n uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.size < int64(n) && !w.closed {
		w.cond.Wait()
	}
	if w.closed {
		return ErrStreamClosed
	}
	w.size -= int64(n)
	return nil
}

func (w *window) consumeChained(n uint32) error {
	for {
		w.mu.Lock()
		for w.size < int64(n) && !w.closed {
			w.cond.Wait()
		}
		if w.closed {
			w.mu.Unlock()
			return ErrStreamClosed
		}

		p := w.parent
		p.mu.Lock()
		if p.size < int64(n) && !p.closed {
			p.mu.Unlock()
			w.mu.Unlock()
			// Parent doesn't have quota yet; wait on it outside the
			// child's lock, then retry the whole acquisition.
			if err := p.waitFor(n); err != nil {
				return err
			}
			continue
		}
		if p.closed {
			p.mu.Unlock()
			w.mu.Unlock()
			return ErrStreamClosed
		}

		w.size -= int64(n)
		p.size -= int64(n)
		p.mu.Unlock()
		w.mu.Unlock()
		return nil
	}
}

func (w *window) waitFor(n uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.size < int64(n) && !w.closed {
		w.cond.Wait()
	}
	if w.closed {
		return ErrStreamClosed
	}
	return nil
}

// AvailableMax reports the largest chunk that may currently be written
// without blocking, bounded by both this window and its parent, and
// never negative.
func (w *window) AvailableMax() uint32 {
	w.mu.Lock()
	n := w.size
	w.mu.Unlock()

	if w.parent != nil {
		if pn := w.parent.Size(); int64(pn) < n {
			n = int64(pn)
		}
	}
	if n < 0 {
		return 0
	}
	return uint32(n)
}
