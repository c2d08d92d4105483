package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cartsync/internal/config"
	"cartsync/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL:      serverURL,
		SessionToken: "test-session-token",
		Timeout:      5,
	}, zerolog.Nop())
}

func TestClient_GetProductByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/P001", r.URL.Path)
		assert.Equal(t, "Bearer test-session-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":       "P001",
				"name":     "Organic Bananas",
				"price":    40,
				"discount": 10,
				"category": "Fruits",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	product, err := client.GetProductByID(context.Background(), "P001")

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "P001", product.ID)
	assert.Equal(t, "Organic Bananas", product.Name)
	assert.Equal(t, 40, product.Price)
	assert.Equal(t, 10, product.Discount)
}

func TestClient_GetProductByID_BackfillsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"name": "Nameless", "price": 10},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	product, err := client.GetProductByID(context.Background(), "P042")

	require.NoError(t, err)
	assert.Equal(t, "P042", product.ID)
}

func TestClient_GetProductByID_EmptyID(t *testing.T) {
	client := newTestClient("http://unused.invalid")

	product, err := client.GetProductByID(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, model.ErrProductNotFound, err)
	assert.Nil(t, product)
}

func TestClient_GetProductByID_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "database down",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	product, err := client.GetProductByID(context.Background(), "P001")

	require.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_GetProductByID_EnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "product not found",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetProductByID(context.Background(), "P404")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}

func TestClient_GetCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"items": []map[string]interface{}{
					{"productId": "P001", "quantity": 2, "addedAt": "2026-08-01T10:00:00Z"},
					{"productId": "P002", "quantity": 1},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	items, err := client.GetCart(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "P001", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 2026, items[0].AddedAt.Year())
}

func TestClient_GetCart_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := newTestClient(server.URL)
	items, err := client.GetCart(context.Background())

	require.Error(t, err)
	assert.Nil(t, items)
}

func TestClient_AddOrUpdateToCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "P001", body["productId"])
		assert.Equal(t, float64(3), body["quantity"])

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.AddOrUpdateToCart(context.Background(), "P001", 3)

	assert.NoError(t, err)
}

func TestClient_AddOrUpdateToCart_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "out of stock",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.AddOrUpdateToCart(context.Background(), "P001", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of stock")
}
