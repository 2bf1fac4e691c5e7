package market

import (
	"context"
	"fmt"

	"stop_guard/internal/models"

	"golang.org/x/sync/errgroup"
)

// Broker is the set of brokerage operations stop_guard depends on. The
// Alpaca implementation lives in the alpaca sub-package; tests use fakes.
type Broker interface {
	ListPositions(ctx context.Context) ([]models.Position, error)
	// ListOpenOrders returns only orders that are still open.
	ListOpenOrders(ctx context.Context) ([]models.Order, error)
	ReplaceOrder(ctx context.Context, orderID string, req models.ReplaceRequest) (*models.Order, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

// Snapshot holds the positions and open orders of an account. The two
// lists are read independently and may be taken at slightly different
// instants.
type Snapshot struct {
	Positions []models.Position
	Orders    []models.Order
}

// FetchSnapshot retrieves positions and open orders concurrently. A failure
// of either read fails the whole snapshot.
func FetchSnapshot(ctx context.Context, broker Broker) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		positions, err := broker.ListPositions(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve position information: %w", err)
		}
		snap.Positions = positions
		return nil
	})
	g.Go(func() error {
		orders, err := broker.ListOpenOrders(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve order information: %w", err)
		}
		snap.Orders = orders
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
