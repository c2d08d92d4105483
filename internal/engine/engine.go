package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/model"

	"github.com/rs/zerolog"
)

// CatalogLookup fetches catalogue attributes for a single product.
type CatalogLookup interface {
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
}

// RemoteCart reads and mutates the authoritative server-side cart.
type RemoteCart interface {
	GetCart(ctx context.Context) ([]api.RemoteItem, error)
	AddOrUpdateToCart(ctx context.Context, productID string, quantity int) error
}

// Subscriber receives a snapshot after every state change.
type Subscriber func(state model.CartState)

// Engine owns the cart state and reconciles it against the server-side cart.
// Local mutations are synchronous and atomic; Sync and AddOrUpdateRemote are
// the only operations that perform I/O. All I/O failures are absorbed at the
// engine boundary: callers observe them as a false result or an unchanged
// state, never as an error or panic.
type Engine struct {
	catalog CatalogLookup
	remote  RemoteCart
	logger  zerolog.Logger

	mu    sync.Mutex
	state model.CartState

	syncing atomic.Bool

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// New creates an engine with an empty cart state.
func New(catalog CatalogLookup, remote RemoteCart, logger zerolog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		remote:  remote,
		logger:  logger.With().Str("component", "cart-engine").Logger(),
		subs:    make(map[int]Subscriber),
	}
}

// Snapshot returns a deep copy of the current cart state.
func (e *Engine) Snapshot() model.CartState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Syncing reports whether a sync pass is currently in flight.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// Subscribe registers a change listener and returns its unsubscribe func.
// Listeners are invoked with a snapshot after every state change, outside
// the state lock.
func (e *Engine) Subscribe(fn Subscriber) func() {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// dispatch applies one command under the state lock and notifies subscribers
// with the resulting snapshot.
func (e *Engine) dispatch(cmd command) {
	e.mu.Lock()
	cmd.apply(&e.state)
	snapshot := e.state.Clone()
	e.mu.Unlock()

	e.notify(snapshot)
}

func (e *Engine) notify(snapshot model.CartState) {
	e.subMu.Lock()
	subs := make([]Subscriber, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Add inserts the product with quantity 1, or increments the existing line.
func (e *Engine) Add(product model.Product) {
	e.dispatch(addItem{product: product, now: time.Now().UTC()})
}

// Remove deletes the line for the product; no-op if absent.
func (e *Engine) Remove(productID string) {
	e.dispatch(removeItem{productID: productID})
}

// SetQuantity sets the line quantity; a value of 0 or below removes the line.
// No-op if the product is absent.
func (e *Engine) SetQuantity(productID string, quantity int) {
	e.dispatch(setQuantity{productID: productID, quantity: quantity})
}

// SaveForLater atomically transfers a product from the cart to the saved list.
func (e *Engine) SaveForLater(productID string) {
	e.dispatch(saveForLater{productID: productID, now: time.Now().UTC()})
}

// MoveToCart atomically transfers a saved product back into the cart.
func (e *Engine) MoveToCart(productID string) {
	e.dispatch(moveToCart{productID: productID, now: time.Now().UTC()})
}

// ApplyCoupon records the coupon code and its discount amount. Codes are
// validated by the caller; the engine records whatever pair it is given.
func (e *Engine) ApplyCoupon(code string, discount int) {
	e.dispatch(applyCoupon{code: code, discount: discount})
}

// RemoveCoupon clears the coupon code and zeroes the discount.
func (e *Engine) RemoveCoupon() {
	e.dispatch(removeCoupon{})
}

// SetDeliveryPincode records a caller-supplied pincode and availability
// verdict. The engine performs no postal-code logic itself.
func (e *Engine) SetDeliveryPincode(pincode string, available bool) {
	e.dispatch(setPincode{pincode: pincode, available: available})
}

// SetUserLocation replaces the selected delivery location; nil clears it.
func (e *Engine) SetUserLocation(location *model.Location) {
	e.dispatch(setLocation{location: location})
}

// Clear empties cart lines, saved lines and coupon fields. Pincode and
// location are left untouched.
func (e *Engine) Clear() {
	e.dispatch(clearCart{})
}

// Restore adopts a previously persisted snapshot wholesale. Used once at
// startup, before any other operation.
func (e *Engine) Restore(state model.CartState) {
	e.dispatch(restoreState{state: state})
}
