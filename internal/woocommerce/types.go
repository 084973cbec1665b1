// Package woocommerce implements the client for the WooCommerce REST API.
// All WooCommerce-specific wire types and HTTP logic live here.
package woocommerce

import (
	"encoding/json"

	"autoparse/internal/model"
)

// === WooCommerce REST API Response Types ===
// Only the fields the worklist needs are decoded; the rest is ignored.

// WooOrder represents an order from GET /orders.
type WooOrder struct {
	ID           int64         `json:"id"`
	Status       string        `json:"status"`
	CustomerNote string        `json:"customer_note"`
	LineItems    []WooLineItem `json:"line_items"`
	MetaData     []WooMetaData `json:"meta_data"`
}

// WooLineItem represents a line on an order.
// product_id is 0 when the product has since been deleted.
type WooLineItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProductID *int64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// WooMetaData represents an order meta entry.
// Value is kept raw: plugins store strings, objects and serialized JSON.
type WooMetaData struct {
	ID    int64           `json:"id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// WooProduct represents a product from GET /products/{id}.
type WooProduct struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
}

// WooErrorResponse represents a WooCommerce REST error body.
type WooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toOrders(in []WooOrder) []model.Order {
	out := make([]model.Order, len(in))
	for i, o := range in {
		out[i] = o.toOrder()
	}
	return out
}

func (o WooOrder) toOrder() model.Order {
	order := model.Order{
		ID:           o.ID,
		Status:       o.Status,
		CustomerNote: o.CustomerNote,
	}
	if o.LineItems != nil {
		order.LineItems = make([]model.LineItem, len(o.LineItems))
		for i, li := range o.LineItems {
			order.LineItems[i] = model.LineItem{Name: li.Name, ProductID: li.ProductID}
		}
	}
	if o.MetaData != nil {
		order.MetaData = make([]model.MetaData, len(o.MetaData))
		for i, m := range o.MetaData {
			order.MetaData[i] = model.MetaData{Key: m.Key, Value: m.Value}
		}
	}
	return order
}

func (p WooProduct) toProduct() model.Product {
	return model.Product{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
	}
}
