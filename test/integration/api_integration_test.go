package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cartsync/internal/api"
	"cartsync/internal/config"
	"cartsync/internal/engine"
	"cartsync/internal/handler"
	"cartsync/internal/model"
	"cartsync/internal/persist"
	"cartsync/internal/router"
	"cartsync/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStorefront is an in-memory stand-in for the upstream storefront API.
type fakeStorefront struct {
	products map[string]model.Product
	cart     []map[string]interface{}
}

func (f *fakeStorefront) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/products/")
		product, ok := f.products[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "product not found",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    product,
		})
	})

	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"items": f.cart},
			})
		case http.MethodPost:
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.cart = append(f.cart, body)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		}
	})

	return mux
}

type testShell struct {
	router    http.Handler
	eng       *engine.Engine
	debouncer *persist.Debouncer
	store     *store.MemoryStore
}

func setupTestShell(t *testing.T, upstreamURL string) *testShell {
	t.Helper()

	logger := zerolog.Nop()

	client := api.NewClient(config.UpstreamConfig{
		BaseURL:      upstreamURL,
		SessionToken: "test-session",
		Timeout:      5,
	}, logger)

	st := store.NewMemoryStore()
	eng := engine.New(client, client, logger)

	debouncer := persist.NewDebouncer(st, "cart", 20*time.Millisecond, logger)
	t.Cleanup(debouncer.Close)

	unsubscribe := eng.Subscribe(debouncer.Notify)
	t.Cleanup(unsubscribe)

	h := handler.NewCartHandler(eng, nil, logger)

	return &testShell{
		router:    router.New(h, "test-api-key", logger),
		eng:       eng,
		debouncer: debouncer,
		store:     st,
	}
}

func (s *testShell) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", "test-api-key")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestCartAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	storefront := &fakeStorefront{
		products: map[string]model.Product{
			"P001": {ID: "P001", Name: "Organic Bananas", Price: 40},
			"P002": {ID: "P002", Name: "Oat Milk", Price: 120, Discount: 10},
		},
	}
	upstream := httptest.NewServer(storefront.handler())
	defer upstream.Close()

	shell := setupTestShell(t, upstream.URL)

	t.Run("Empty cart", func(t *testing.T) {
		w := shell.request(t, http.MethodGet, "/api/cart", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Empty(t, body["items"])
		assert.Equal(t, float64(0), body["total"])
	})

	t.Run("Add and update items", func(t *testing.T) {
		w := shell.request(t, http.MethodPost, "/api/cart/items",
			`{"id":"P001","name":"Organic Bananas","price":40}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = shell.request(t, http.MethodPut, "/api/cart/items/P001", `{"quantity":3}`)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, float64(3), body["totalQuantity"])
		assert.Equal(t, float64(120), body["subtotal"])
	})

	t.Run("Sync replaces lines from the server cart", func(t *testing.T) {
		storefront.cart = []map[string]interface{}{
			{"productId": "P002", "quantity": 2},
		}

		w := shell.request(t, http.MethodPost, "/api/cart/sync", "")
		require.Equal(t, http.StatusOK, w.Code)

		state := shell.eng.Snapshot()
		require.Len(t, state.Lines, 1)
		assert.Equal(t, "P002", state.Lines[0].Product.ID)
		assert.Equal(t, "Oat Milk", state.Lines[0].Product.Name)
		assert.Equal(t, 2, state.Lines[0].Quantity)
		assert.False(t, state.Lines[0].LookupFailed)
	})

	t.Run("Sync degrades unknown products to placeholders", func(t *testing.T) {
		storefront.cart = []map[string]interface{}{
			{"productId": "P002", "quantity": 1},
			{"productId": "P999", "quantity": 1},
		}

		w := shell.request(t, http.MethodPost, "/api/cart/sync", "")
		require.Equal(t, http.StatusOK, w.Code)

		state := shell.eng.Snapshot()
		require.Len(t, state.Lines, 2)
		assert.Equal(t, model.PlaceholderName, state.Lines[1].Product.Name)
		assert.True(t, state.Lines[1].LookupFailed)
	})

	t.Run("Remote upsert pushes to the server and mirrors locally", func(t *testing.T) {
		storefront.cart = nil

		w := shell.request(t, http.MethodPost, "/api/cart/remote",
			`{"productId":"P001","quantity":2}`)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Success bool `json:"success"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.Success)

		require.Len(t, storefront.cart, 1)
		assert.Equal(t, "P001", storefront.cart[0]["productId"])

		state := shell.eng.Snapshot()
		assert.GreaterOrEqual(t, state.LineIndex("P001"), 0)
	})

	t.Run("Changes are persisted and survive a restart", func(t *testing.T) {
		shell.request(t, http.MethodPost, "/api/cart/clear", "")
		shell.request(t, http.MethodPost, "/api/cart/items",
			`{"id":"P001","name":"Organic Bananas","price":40}`)
		shell.debouncer.Flush(context.Background())

		// A fresh engine hydrating from the same store sees the cart
		fresh := persist.NewDebouncer(shell.store, "cart", persist.DefaultDelay, zerolog.Nop())
		defer fresh.Close()

		state, ok := fresh.Load(context.Background())
		require.True(t, ok)
		require.Len(t, state.Lines, 1)
		assert.Equal(t, "P001", state.Lines[0].Product.ID)
	})
}

func TestCartAPI_UpstreamDown_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	upstream := httptest.NewServer(http.NotFoundHandler())
	upstream.Close() // refuse all connections

	shell := setupTestShell(t, upstream.URL)
	shell.eng.Add(model.Product{ID: "P001", Name: "Organic Bananas", Price: 40})

	// Sync fails silently and leaves the local cart alone
	w := shell.request(t, http.MethodPost, "/api/cart/sync", "")
	require.Equal(t, http.StatusOK, w.Code)

	state := shell.eng.Snapshot()
	require.Len(t, state.Lines, 1)
	assert.Equal(t, "P001", state.Lines[0].Product.ID)

	// Remote upserts report failure without local changes
	w = shell.request(t, http.MethodPost, "/api/cart/remote",
		`{"productId":"P002","quantity":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	snap := shell.eng.Snapshot()
	assert.Equal(t, -1, snap.LineIndex("P002"))
}
