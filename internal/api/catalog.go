package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"cartsync/internal/model"
)

// GetProductByID fetches the catalogue attributes for one product. The
// catalogue endpoint serves one product per call; there is no batch variant.
func (c *Client) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	env, err := c.get(ctx, "/api/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := json.Unmarshal(env.Data, &product); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}

	if product.ID == "" {
		product.ID = id
	}

	return &product, nil
}
