package adapter

import (
	"context"

	"autoparse/internal/model"
)

// Mock implements Store for testing.
// Each method can be configured via function fields.
type Mock struct {
	FetchProcessingOrdersFunc func(ctx context.Context) ([]model.Order, error)
	FetchProductFunc          func(ctx context.Context, productID *int64) model.ProductLookup

	// ProductCalls counts FetchProduct invocations.
	ProductCalls int
}

// FetchProcessingOrders calls the configured func or returns no orders.
func (m *Mock) FetchProcessingOrders(ctx context.Context) ([]model.Order, error) {
	if m.FetchProcessingOrdersFunc != nil {
		return m.FetchProcessingOrdersFunc(ctx)
	}
	return nil, nil
}

// FetchProduct calls the configured func or reports the product as absent.
func (m *Mock) FetchProduct(ctx context.Context, productID *int64) model.ProductLookup {
	m.ProductCalls++
	if m.FetchProductFunc != nil {
		return m.FetchProductFunc(ctx, productID)
	}
	return model.ProductLookup{Status: model.LookupAbsent}
}

// Products returns a FetchProductFunc serving the given products by id.
// Unknown ids are absent.
func Products(products ...model.Product) func(context.Context, *int64) model.ProductLookup {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return func(_ context.Context, productID *int64) model.ProductLookup {
		if productID == nil {
			return model.ProductLookup{Status: model.LookupAbsent}
		}
		p, ok := byID[*productID]
		if !ok {
			return model.ProductLookup{Status: model.LookupAbsent}
		}
		return model.ProductLookup{Status: model.LookupFound, Product: &p}
	}
}
