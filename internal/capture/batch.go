package capture

import "time"

// Batcher accumulates samples of one kind until the configured count or
// time-window threshold is reached, whichever fills first (spec.md §4.3:
// "default 100 samples or 1 s, whichever fills first").
type Batcher[T any] struct {
	maxSamples  int
	window      time.Duration
	now         func() time.Time
	samples     []T
	windowStart time.Time
}

// NewBatcher creates a Batcher. now is injected so tests can control the
// clock driving the window threshold.
func NewBatcher[T any](maxSamples int, window time.Duration, now func() time.Time) *Batcher[T] {
	return &Batcher[T]{maxSamples: maxSamples, window: window, now: now}
}

// Add appends sample to the pending batch and reports the flushed batch
// once a threshold is crossed. The returned slice is nil when neither
// threshold has been reached yet.
func (b *Batcher[T]) Add(sample T) []T {
	if len(b.samples) == 0 {
		b.windowStart = b.now()
	}

	b.samples = append(b.samples, sample)

	if len(b.samples) >= b.maxSamples || b.now().Sub(b.windowStart) >= b.window {
		return b.flush()
	}

	return nil
}

// Flush forces out whatever is pending, e.g. on a window-expiry tick with
// no new sample, or on session stop. Returns nil if nothing is pending.
func (b *Batcher[T]) Flush() []T {
	if len(b.samples) == 0 {
		return nil
	}

	return b.flush()
}

// Pending reports whether the batcher currently holds unflushed samples,
// and since when — used to drive a window-expiry timer.
func (b *Batcher[T]) Pending() (since time.Time, ok bool) {
	if len(b.samples) == 0 {
		return time.Time{}, false
	}

	return b.windowStart, true
}

func (b *Batcher[T]) flush() []T {
	out := b.samples
	b.samples = nil

	return out
}
