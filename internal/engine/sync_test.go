package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSync_ReplacesLinesInServerOrder(t *testing.T) {
	eng, catalog, remote := newTestEngine()
	ctx := context.Background()

	addedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{
		{ProductID: "P003", Quantity: 2, AddedAt: addedAt},
		{ProductID: "P001", Quantity: 1, AddedAt: addedAt},
	}, nil)
	p3 := testProduct("P003", 300)
	p1 := testProduct("P001", 100)
	catalog.On("GetProductByID", mock.Anything, "P003").Return(&p3, nil)
	catalog.On("GetProductByID", mock.Anything, "P001").Return(&p1, nil)

	eng.Sync(ctx)

	state := eng.Snapshot()
	require.Len(t, state.Lines, 2)
	assert.Equal(t, "P003", state.Lines[0].Product.ID)
	assert.Equal(t, 2, state.Lines[0].Quantity)
	assert.Equal(t, addedAt, state.Lines[0].AddedAt)
	assert.Equal(t, "P001", state.Lines[1].Product.ID)
	assert.False(t, state.Lines[0].LookupFailed)

	remote.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestSync_RemoteFailureKeepsLocalCart(t *testing.T) {
	eng, _, remote := newTestEngine()
	ctx := context.Background()

	eng.Add(testProduct("P001", 100))
	before := eng.Snapshot()

	remote.On("GetCart", mock.Anything).Return(nil, errors.New("connection refused"))

	eng.Sync(ctx)

	assert.Equal(t, before, eng.Snapshot())
	assert.False(t, eng.Syncing())
}

func TestSync_PartialLookupFailureUsesPlaceholder(t *testing.T) {
	eng, catalog, remote := newTestEngine()
	ctx := context.Background()

	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{
		{ProductID: "P001", Quantity: 1},
		{ProductID: "P002", Quantity: 3},
	}, nil)
	p1 := testProduct("P001", 100)
	catalog.On("GetProductByID", mock.Anything, "P001").Return(&p1, nil)
	catalog.On("GetProductByID", mock.Anything, "P002").Return(nil, errors.New("not found"))

	eng.Sync(ctx)

	state := eng.Snapshot()
	require.Len(t, state.Lines, 2)

	assert.Equal(t, "Product P001", state.Lines[0].Product.Name)
	assert.False(t, state.Lines[0].LookupFailed)

	assert.Equal(t, "P002", state.Lines[1].Product.ID)
	assert.Equal(t, model.PlaceholderName, state.Lines[1].Product.Name)
	assert.Zero(t, state.Lines[1].Product.Price)
	assert.Equal(t, 3, state.Lines[1].Quantity)
	assert.True(t, state.Lines[1].LookupFailed)
}

func TestSync_EnrichmentCapDropsExcessItems(t *testing.T) {
	eng, catalog, remote := newTestEngine()
	ctx := context.Background()

	items := make([]api.RemoteItem, 15)
	for i := range items {
		items[i] = api.RemoteItem{ProductID: fmt.Sprintf("P%03d", i), Quantity: 1}
	}
	remote.On("GetCart", mock.Anything).Return(items, nil)

	for i := 0; i < maxLookupsPerSync; i++ {
		p := testProduct(fmt.Sprintf("P%03d", i), 100)
		catalog.On("GetProductByID", mock.Anything, p.ID).Return(&p, nil).Once()
	}

	eng.Sync(ctx)

	state := eng.Snapshot()
	assert.Len(t, state.Lines, maxLookupsPerSync)
	catalog.AssertNumberOfCalls(t, "GetProductByID", maxLookupsPerSync)
}

func TestSync_MergesDuplicateProductIDs(t *testing.T) {
	eng, catalog, remote := newTestEngine()
	ctx := context.Background()

	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{
		{ProductID: "P001", Quantity: 2},
		{ProductID: "P002", Quantity: 1},
		{ProductID: "P001", Quantity: 3},
	}, nil)
	p1 := testProduct("P001", 100)
	p2 := testProduct("P002", 200)
	catalog.On("GetProductByID", mock.Anything, "P001").Return(&p1, nil).Once()
	catalog.On("GetProductByID", mock.Anything, "P002").Return(&p2, nil).Once()

	eng.Sync(ctx)

	state := eng.Snapshot()
	require.Len(t, state.Lines, 2)
	assert.Equal(t, "P001", state.Lines[0].Product.ID)
	assert.Equal(t, 5, state.Lines[0].Quantity)
	assert.Equal(t, "P002", state.Lines[1].Product.ID)
}

func TestSync_DoesNotTouchSavedCouponOrDelivery(t *testing.T) {
	eng, catalog, remote := newTestEngine()
	ctx := context.Background()

	eng.Add(testProduct("P009", 900))
	eng.SaveForLater("P009")
	eng.ApplyCoupon("SAVETWENTY", 20)
	eng.SetDeliveryPincode("560001", true)

	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{
		{ProductID: "P001", Quantity: 1},
	}, nil)
	p1 := testProduct("P001", 100)
	catalog.On("GetProductByID", mock.Anything, "P001").Return(&p1, nil)

	eng.Sync(ctx)

	state := eng.Snapshot()
	require.Len(t, state.Saved, 1)
	assert.Equal(t, "P009", state.Saved[0].Product.ID)
	assert.Equal(t, "SAVETWENTY", state.CouponCode)
	assert.Equal(t, 20, state.CouponDiscount)
	assert.Equal(t, "560001", state.Pincode)
}

func TestSync_EmptyRemoteCartClearsLines(t *testing.T) {
	eng, _, remote := newTestEngine()
	ctx := context.Background()

	eng.Add(testProduct("P001", 100))

	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{}, nil)

	eng.Sync(ctx)

	assert.Empty(t, eng.Snapshot().Lines)
}

func TestSync_SingleFlight(t *testing.T) {
	eng, _, remote := newTestEngine()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{}, nil).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).Once()

	done := make(chan struct{})
	go func() {
		eng.Sync(ctx)
		close(done)
	}()

	<-entered
	assert.True(t, eng.Syncing())

	// Overlapping calls return immediately without a second fetch
	eng.Sync(ctx)
	eng.Sync(ctx)

	close(release)
	<-done

	assert.False(t, eng.Syncing())
	remote.AssertNumberOfCalls(t, "GetCart", 1)
}

func TestSync_GuardReleasedAfterFailure(t *testing.T) {
	eng, _, remote := newTestEngine()
	ctx := context.Background()

	remote.On("GetCart", mock.Anything).Return(nil, errors.New("boom")).Once()
	eng.Sync(ctx)
	assert.False(t, eng.Syncing())

	// A later pass proceeds normally
	remote.On("GetCart", mock.Anything).Return([]api.RemoteItem{}, nil).Once()
	eng.Sync(ctx)
	remote.AssertNumberOfCalls(t, "GetCart", 2)
}

func TestMergeDuplicates(t *testing.T) {
	items := []api.RemoteItem{
		{ProductID: "A", Quantity: 1},
		{ProductID: "B", Quantity: 2},
		{ProductID: "A", Quantity: 4},
		{ProductID: "C", Quantity: 1},
		{ProductID: "B", Quantity: 1},
	}

	merged := mergeDuplicates(items)

	require.Len(t, merged, 3)
	assert.Equal(t, api.RemoteItem{ProductID: "A", Quantity: 5}, merged[0])
	assert.Equal(t, api.RemoteItem{ProductID: "B", Quantity: 3}, merged[1])
	assert.Equal(t, api.RemoteItem{ProductID: "C", Quantity: 1}, merged[2])
}
