package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"cartsync/internal/model"
	"cartsync/internal/store"

	"github.com/rs/zerolog"
)

// DefaultDelay is the debounce window for snapshot writes.
const DefaultDelay = 500 * time.Millisecond

// writeTimeout bounds a single store write triggered by the timer.
const writeTimeout = 5 * time.Second

// Debouncer coalesces bursts of cart changes into a single store write.
// Every change replaces the pending snapshot and restarts one outstanding
// timer; when the timer finally fires, the latest snapshot is written.
// Write failures are logged and swallowed: persistence is a best-effort
// mirror, not the source of truth.
type Debouncer struct {
	store  store.Store
	key    string
	delay  time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending model.CartState
	dirty   bool
	closed  bool
}

// NewDebouncer creates a debounced snapshot writer. A non-positive delay
// falls back to DefaultDelay.
func NewDebouncer(st store.Store, key string, delay time.Duration, logger zerolog.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		store:  st,
		key:    key,
		delay:  delay,
		logger: logger.With().Str("component", "persist-debouncer").Logger(),
	}
}

// Notify records the latest state and (re)starts the delay timer. A timer
// already pending is replaced, not stacked.
func (d *Debouncer) Notify(state model.CartState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.pending = state
	d.dirty = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// fire writes the pending snapshot once the debounce window has elapsed.
func (d *Debouncer) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	d.Flush(ctx)
}

// Flush writes the pending snapshot immediately, if there is one. Used by
// the timer and at shutdown.
func (d *Debouncer) Flush(ctx context.Context) {
	d.mu.Lock()
	if !d.dirty {
		d.mu.Unlock()
		return
	}
	state := d.pending.Clone()
	d.dirty = false
	d.mu.Unlock()

	blob, err := Encode(state)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to encode cart snapshot")
		return
	}

	if err := d.store.Set(ctx, d.key, blob); err != nil {
		d.logger.Warn().Err(err).Str("key", d.key).Msg("cart snapshot write failed")
		return
	}

	d.logger.Debug().
		Str("key", d.key).
		Int("line_count", len(state.Lines)).
		Msg("cart snapshot persisted")
}

// Load reads and decodes the stored snapshot once, for startup hydration.
// A missing or malformed blob yields (empty, false).
func (d *Debouncer) Load(ctx context.Context) (model.CartState, bool) {
	blob, err := d.store.Get(ctx, d.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			d.logger.Warn().Err(err).Str("key", d.key).Msg("cart snapshot read failed")
		}
		return model.CartState{}, false
	}

	state, err := Decode(blob)
	if err != nil {
		d.logger.Warn().Err(err).Str("key", d.key).Msg("stored cart snapshot is malformed, starting empty")
		return model.CartState{}, false
	}

	return state, true
}

// Close stops the pending timer. A final Flush should be called first if the
// latest state must be persisted.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
