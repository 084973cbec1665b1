// Package adapter defines the interface for commerce platform integrations.
// The worklist and document generator depend on this interface, not on a
// concrete platform client.
package adapter

import (
	"context"

	"autoparse/internal/model"
)

// Store abstracts the order and product lookups the worklist needs.
// The WooCommerce client is the production implementation.
type Store interface {
	// FetchProcessingOrders returns every order with status "processing".
	// Configuration and remote errors abort the call: a partial list is
	// never returned.
	FetchProcessingOrders(ctx context.Context) ([]model.Order, error)

	// FetchProduct looks up a product by id. It is best-effort and reports
	// failures through the lookup status instead of an error.
	FetchProduct(ctx context.Context, productID *int64) model.ProductLookup
}
