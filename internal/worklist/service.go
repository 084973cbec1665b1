package worklist

import (
	"context"
	"io"
	"log/slog"

	"autoparse/internal/adapter"
	"autoparse/internal/model"
)

// Service fetches processing orders from the store and applies the filter.
type Service struct {
	store  adapter.Store
	logger *slog.Logger
}

// NewService creates a worklist service backed by the given store.
func NewService(store adapter.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger}
}

// All returns every processing order, unfiltered.
func (s *Service) All(ctx context.Context) ([]model.Order, error) {
	return s.store.FetchProcessingOrders(ctx)
}

// Untracked returns the processing orders that have no track & trace yet.
func (s *Service) Untracked(ctx context.Context) ([]model.Order, error) {
	orders, _, err := s.Summary(ctx)
	return orders, err
}

// Summary returns the untracked orders together with the number of
// processing orders they were selected from.
func (s *Service) Summary(ctx context.Context) ([]model.Order, int, error) {
	all, err := s.store.FetchProcessingOrders(ctx)
	if err != nil {
		return nil, 0, err
	}

	untracked := FilterUntracked(all)
	s.logger.Info("worklist built",
		slog.Int("processing", len(all)),
		slog.Int("untracked", len(untracked)),
	)
	return untracked, len(all), nil
}
