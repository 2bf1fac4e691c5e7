package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"stop_guard/internal/action"
	"stop_guard/internal/config"
	"stop_guard/internal/market"
	"stop_guard/internal/protect"
	"stop_guard/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notifier delivers pass summaries, e.g. to Telegram.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Watcher runs reconciliation passes: it reads the account snapshot,
// evaluates every position's stop-loss protection and either prints the
// commands to fix it (dry run) or applies them.
type Watcher struct {
	broker   market.Broker
	config   *config.Config
	emitter  *action.Emitter
	notifier Notifier
	out      io.Writer
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Watcher)

// WithNotifier sends a summary of every pass that needed attention.
func WithNotifier(n Notifier) Option {
	return func(w *Watcher) { w.notifier = n }
}

// WithOutput sets where dry-run commands are printed (stdout by default).
func WithOutput(out io.Writer) Option {
	return func(w *Watcher) { w.out = out }
}

func New(cfg *config.Config, broker market.Broker, log zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		broker:  broker,
		config:  cfg,
		emitter: action.NewEmitter(broker, cfg.Concurrency, log),
		out:     os.Stdout,
		log:     log.With().Str("component", "watcher").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) Name() string { return "stop_guard" }

// Run performs one pass. It satisfies scheduler.Job.
func (w *Watcher) Run(ctx context.Context) error {
	_, err := w.RunPass(ctx)
	return err
}

// RunPass performs a single reconciliation pass. Only a failure to read
// the snapshot aborts the pass; rejected positions and failed broker calls
// are recorded in the report, and the latter are also returned as a joined
// error.
func (w *Watcher) RunPass(ctx context.Context) (*storage.Report, error) {
	snap, err := market.FetchSnapshot(ctx, w.broker)
	if err != nil {
		return nil, err
	}
	w.log.Debug().Int("positions", len(snap.Positions)).Int("orders", len(snap.Orders)).Msg("Snapshot retrieved")

	w.warnMissingSymbols(snap)

	results := protect.Evaluate(snap.Positions, snap.Orders, w.config.Params(), w.config.Symbols...)

	report := &storage.Report{
		Version:   storage.ReportVersion,
		Timestamp: w.now().UTC(),
		Applied:   w.config.Apply,
		Positions: len(snap.Positions),
		Orders:    len(snap.Orders),
		Entries:   make([]storage.Entry, len(results)),
	}
	for i, r := range results {
		w.logDecision(r)
		report.Entries[i] = newEntry(w.config.CLI, r)
	}

	var actErr error
	if w.config.Apply {
		var outcomes []action.Outcome
		outcomes, actErr = w.emitter.Apply(ctx, results)
		for i, o := range outcomes {
			if o.Err != nil {
				report.Entries[i].Error = o.Err.Error()
			}
			if o.Order != nil {
				report.Entries[i].AppliedOrderID = o.Order.ID
			}
		}
	} else {
		w.printCommands(report)
	}

	if w.config.ReportFile != "" {
		if err := storage.SaveReport(w.config.ReportFile, report); err != nil {
			w.log.Error().Err(err).Str("file", w.config.ReportFile).Msg("Failed to save report")
		}
	}

	w.notify(ctx, report)
	return report, actErr
}

func (w *Watcher) warnMissingSymbols(snap market.Snapshot) {
	if len(w.config.Symbols) == 0 {
		return
	}
	held := make(map[string]bool, len(snap.Positions))
	for _, p := range snap.Positions {
		held[p.Symbol] = true
	}
	for _, s := range w.config.Symbols {
		if !held[s] {
			w.log.Warn().Str("symbol", s).Msg("No open position for symbol")
		}
	}
}

func (w *Watcher) logDecision(r protect.Result) {
	d := r.Decision
	log := w.log.With().Str("symbol", r.Symbol).Str("decision", d.Kind.String()).Logger()

	switch d.Kind {
	case protect.NoActionNeeded:
		log.Info().Msg(d.Note)
	case protect.Rejected:
		log.Error().Err(d.Err).Msgf("failed to evaluate %s position", r.Symbol)
	default:
		ev := log.Info()
		if d.OrderID != "" {
			ev = ev.Str("order_id", d.OrderID)
		}
		ev.Str("quantity", d.Quantity.String()).
			Str("limit", d.LimitPrice.StringFixed(protect.PriceDecimals)).
			Str("stop", d.StopPrice.StringFixed(protect.PriceDecimals)).
			Msg("Stop-loss order needs attention")
	}
}

func (w *Watcher) printCommands(report *storage.Report) {
	for _, e := range report.Entries {
		if e.Command == "" {
			continue
		}
		fmt.Fprintf(w.out, "%s:\n%s\n", e.Symbol, e.Command)
	}
}

func (w *Watcher) notify(ctx context.Context, report *storage.Report) {
	if w.notifier == nil {
		return
	}
	msg, ok := Summary(report)
	if !ok {
		return
	}
	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Warn().Err(err).Msg("Failed to send pass summary")
	}
}

func newEntry(cli string, r protect.Result) storage.Entry {
	d := r.Decision
	e := storage.Entry{
		Symbol:  r.Symbol,
		Action:  d.Kind.String(),
		OrderID: d.OrderID,
		Note:    d.Note,
	}
	if d.Err != nil {
		e.Error = d.Err.Error()
	}
	if d.Actionable() {
		e.Quantity = decimalPtr(d.Quantity)
		e.LimitPrice = decimalPtr(d.LimitPrice)
		e.StopPrice = decimalPtr(d.StopPrice)
		e.Command, _ = action.Command(cli, d)
	}
	return e
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
