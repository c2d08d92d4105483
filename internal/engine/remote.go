package engine

import (
	"context"
	"time"
)

// AddOrUpdateRemote upserts one line item on the server-side cart and, on
// success, mirrors the change into local state. On any failure it reports
// false without mutating local state; the caller decides whether to fall
// back to a local-only mutation. The call never retries.
//
// When the product is not yet known locally the engine fetches its catalogue
// details itself so the remote change materializes in the local cart. If that
// lookup fails the remote upsert still counts as a success and the local cart
// is left alone.
func (e *Engine) AddOrUpdateRemote(ctx context.Context, productID string, quantity int) bool {
	if productID == "" {
		return false
	}

	if err := e.remote.AddOrUpdateToCart(ctx, productID, quantity); err != nil {
		e.logger.Warn().
			Err(err).
			Str("product_id", productID).
			Int("quantity", quantity).
			Msg("remote cart upsert failed")
		return false
	}

	e.mu.Lock()
	known := e.state.LineIndex(productID) >= 0
	e.mu.Unlock()

	if known || quantity < 1 {
		e.dispatch(setQuantity{productID: productID, quantity: quantity})
		return true
	}

	product, err := e.catalog.GetProductByID(ctx, productID)
	if err != nil || product == nil {
		e.logger.Warn().
			Err(err).
			Str("product_id", productID).
			Msg("catalogue lookup for new remote item failed, local cart not updated")
		return true
	}

	e.dispatch(upsertLine{product: *product, quantity: quantity, now: time.Now().UTC()})
	return true
}
