package adminapi

import (
	"context"
	"net/http"

	orders "admin-dashboard/internal/orders/domain"
)

// ListOrders fetches the full order collection.
func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var resp listEnvelope[orders.Order]
	if err := c.doJSON(ctx, http.MethodGet, "/orders", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []orders.Order{}, nil
	}
	return resp.Items, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	if id == "" {
		return orders.Order{}, ErrEmptyID
	}
	var resp orders.Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+pathEscape(id), nil, &resp); err != nil {
		return orders.Order{}, err
	}
	return resp, nil
}
