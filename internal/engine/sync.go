package engine

import (
	"context"
	"sync"

	"cartsync/internal/api"
	"cartsync/internal/model"
)

// maxLookupsPerSync bounds catalogue fan-out per sync pass. Identifiers
// beyond the cap are dropped from the pass entirely.
const maxLookupsPerSync = 10

// Sync reconciles the local cart against the server-side cart.
//
// The pass is single-flight: if a sync is already running, the call returns
// immediately without fetching anything. A failed remote fetch leaves the
// local state untouched. Catalogue lookups run concurrently and settle
// independently; a failed lookup degrades its line to placeholder attributes
// instead of aborting the pass. The final line order follows the server's
// item order, not lookup completion order. Only cart lines are replaced;
// saved lines, coupon and delivery fields are never touched by a sync.
//
// Sync never returns an error: callers observe failure only through an
// unchanged state. Diagnosis goes through the log.
func (e *Engine) Sync(ctx context.Context) {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug().Msg("sync already in flight, dropping call")
		return
	}
	defer e.syncing.Store(false)

	items, err := e.remote.GetCart(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("remote cart fetch failed, keeping local cart")
		return
	}

	items = mergeDuplicates(items)
	if len(items) > maxLookupsPerSync {
		e.logger.Warn().
			Int("total", len(items)).
			Int("cap", maxLookupsPerSync).
			Msg("remote cart exceeds enrichment cap, excess items dropped")
		items = items[:maxLookupsPerSync]
	}

	enriched := e.enrich(ctx, items)

	lines := make([]model.CartLine, len(items))
	for i, item := range items {
		lines[i] = model.CartLine{
			Product:      enriched[i].product,
			Quantity:     item.Quantity,
			AddedAt:      item.AddedAt,
			LookupFailed: enriched[i].failed,
		}
	}

	e.dispatch(replaceLines{lines: lines})

	e.logger.Info().
		Int("line_count", len(lines)).
		Msg("cart synced from server")
}

// mergeDuplicates collapses repeated product identifiers into the first
// occurrence, summing quantities, so the one-line-per-product invariant
// holds regardless of what the server returns.
func mergeDuplicates(items []api.RemoteItem) []api.RemoteItem {
	seen := make(map[string]int, len(items))
	out := make([]api.RemoteItem, 0, len(items))
	for _, item := range items {
		if i, ok := seen[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		seen[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// enrichResult carries one catalogue lookup outcome back to its original
// server-order index.
type enrichResult struct {
	index   int
	product model.Product
	failed  bool
}

// enrich resolves product details for every item concurrently. Lookups are
// independent: one failure does not abort the others, the failing item gets
// placeholder attributes. Results are collected by original index so the
// caller can join them with the item list positionally.
func (e *Engine) enrich(ctx context.Context, items []api.RemoteItem) []enrichResult {
	results := make([]enrichResult, len(items))
	resultChan := make(chan enrichResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(index int, id string) {
			defer wg.Done()

			product, err := e.catalog.GetProductByID(ctx, id)
			if err != nil || product == nil {
				e.logger.Warn().
					Err(err).
					Str("product_id", id).
					Msg("catalogue lookup failed, using placeholder")
				resultChan <- enrichResult{
					index:   index,
					product: model.PlaceholderProduct(id),
					failed:  true,
				}
				return
			}

			resultChan <- enrichResult{index: index, product: *product}
		}(i, item.ProductID)
	}

	wg.Wait()
	close(resultChan)

	for result := range resultChan {
		results[result.index] = result
	}

	return results
}
