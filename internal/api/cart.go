package api

import (
	"context"
	"time"
)

// RemoteItem is one normalized line of the server-side cart.
type RemoteItem struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// addOrUpdateRequest is the upsert payload for one server-side cart line.
type addOrUpdateRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCart fetches the server's view of the cart for the current session and
// normalizes it into a flat item list.
func (c *Client) GetCart(ctx context.Context) ([]RemoteItem, error) {
	env, err := c.get(ctx, "/api/cart")
	if err != nil {
		return nil, err
	}
	return normalizeCartPayload(env.Data), nil
}

// AddOrUpdateToCart upserts one line item on the server-side cart.
func (c *Client) AddOrUpdateToCart(ctx context.Context, productID string, quantity int) error {
	_, err := c.post(ctx, "/api/cart", addOrUpdateRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}
