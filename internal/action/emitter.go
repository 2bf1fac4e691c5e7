package action

import (
	"context"
	"errors"
	"fmt"

	"stop_guard/internal/market"
	"stop_guard/internal/models"
	"stop_guard/internal/protect"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of broker calls in flight.
const DefaultConcurrency = 4

// Outcome is the result of emitting one decision.
type Outcome struct {
	Symbol   string
	Decision protect.Decision
	// Order is the broker's view of the amended or submitted order.
	Order *models.Order
	Err   error
}

// Emitter turns decisions into broker calls.
type Emitter struct {
	broker      market.Broker
	concurrency int
	log         zerolog.Logger
	newID       func() string
}

func NewEmitter(broker market.Broker, concurrency int, log zerolog.Logger) *Emitter {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Emitter{
		broker:      broker,
		concurrency: concurrency,
		log:         log.With().Str("component", "emitter").Logger(),
		newID:       uuid.NewString,
	}
}

// Apply issues the broker calls for all actionable decisions, at most
// concurrency at a time. Every result gets an Outcome, in input order.
// Failures are neither retried nor dropped: each one is recorded on its
// Outcome and all of them are joined into the returned error.
func (e *Emitter) Apply(ctx context.Context, results []protect.Result) ([]Outcome, error) {
	outcomes := make([]Outcome, len(results))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for i, r := range results {
		outcomes[i] = Outcome{Symbol: r.Symbol, Decision: r.Decision}
		if !r.Decision.Actionable() {
			continue
		}

		i, d := i, r.Decision
		g.Go(func() error {
			order, err := e.emit(ctx, d)
			outcomes[i].Order = order
			outcomes[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Symbol, o.Err))
		}
	}
	return outcomes, errors.Join(errs...)
}

func (e *Emitter) emit(ctx context.Context, d protect.Decision) (*models.Order, error) {
	log := e.log.With().Str("symbol", d.Symbol).Str("decision", d.Kind.String()).Logger()

	var (
		order *models.Order
		err   error
	)
	switch d.Kind {
	case protect.AmendOrder:
		order, err = e.broker.ReplaceOrder(ctx, d.OrderID, models.ReplaceRequest{
			Quantity:   d.Quantity,
			LimitPrice: d.LimitPrice,
			StopPrice:  d.StopPrice,
		})
	case protect.SubmitNewOrder:
		order, err = e.broker.PlaceOrder(ctx, models.OrderRequest{
			Symbol:        d.Symbol,
			Side:          d.Side,
			Quantity:      d.Quantity,
			LimitPrice:    d.LimitPrice,
			StopPrice:     d.StopPrice,
			TimeInForce:   models.UntilCanceled,
			ClientOrderID: e.newID(),
		})
	default:
		return nil, nil
	}

	if err != nil {
		log.Error().Err(err).Msg("Order mutation failed")
		return nil, err
	}

	ev := log.Info()
	if order != nil {
		ev = ev.Str("order_id", order.ID)
	}
	ev.Str("limit", fixed(d.LimitPrice)).Str("stop", fixed(d.StopPrice)).Msg("Stop-loss order in place")
	return order, nil
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(protect.PriceDecimals)
}
