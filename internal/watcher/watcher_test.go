package watcher

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"stop_guard/internal/config"
	"stop_guard/internal/models"
	"stop_guard/internal/protect"
	"stop_guard/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBroker implements market.Broker for testing
type MockBroker struct {
	mu        sync.Mutex
	positions []models.Position
	orders    []models.Order
	listErr   error
	placeErr  map[string]error
	placed    []models.OrderRequest
	replaced  map[string]models.ReplaceRequest
}

func (m *MockBroker) ListPositions(ctx context.Context) ([]models.Position, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.positions, nil
}

func (m *MockBroker) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	return m.orders, nil
}

func (m *MockBroker) ReplaceOrder(ctx context.Context, id string, req models.ReplaceRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaced == nil {
		m.replaced = make(map[string]models.ReplaceRequest)
	}
	m.replaced[id] = req
	return &models.Order{ID: id + "-replaced"}, nil
}

func (m *MockBroker) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.placeErr[req.Symbol]; err != nil {
		return nil, err
	}
	m.placed = append(m.placed, req)
	return &models.Order{ID: "new-" + req.Symbol}, nil
}

// SpyNotifier records sent messages.
type SpyNotifier struct {
	messages []string
}

func (s *SpyNotifier) Notify(ctx context.Context, text string) error {
	s.messages = append(s.messages, text)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func position(symbol, qty, entry, gain string) models.Position {
	return models.Position{
		Symbol:                     symbol,
		Side:                       models.Long,
		Quantity:                   dec(qty),
		AverageEntryPrice:          dec(entry),
		CurrentPrice:               decPtr(entry),
		UnrealizedGainTotalPercent: decPtr(gain),
	}
}

func stopOrder(id, symbol, qty, limit, stop string) models.Order {
	return models.Order{
		ID:          id,
		Symbol:      symbol,
		Side:        models.Sell,
		Amount:      models.Quantity(dec(qty)),
		LimitPrice:  decPtr(limit),
		StopPrice:   decPtr(stop),
		TimeInForce: models.UntilCanceled,
		Status:      "new",
	}
}

func newBroker() *MockBroker {
	return &MockBroker{
		positions: []models.Position{
			position("AAPL", "100", "150.00", "0.06"),
			position("MSFT", "10", "300.00", "0.02"),
			position("NVDA", "5", "400.00", "0.30"),
			position("TSLA", "3", "200.00", "0.10"),
		},
		orders: []models.Order{
			stopOrder("o-msft", "MSFT", "5", "300.30", "303.00"),
			stopOrder("o-nvda-1", "NVDA", "5", "400.40", "404.00"),
			stopOrder("o-nvda-2", "NVDA", "5", "400.40", "404.00"),
			stopOrder("o-tsla", "TSLA", "3", "200.20", "202.00"),
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		LimitMarkupBps: protect.DefaultLimitMarkupBps,
		StopMarkupBps:  protect.DefaultStopMarkupBps,
		MinGainPercent: protect.DefaultMinGainPercent,
		Concurrency:    2,
		CLI:            "apcacli",
		ReportFile:     filepath.Join(t.TempDir(), "report.json"),
	}
}

func TestRunPass_DryRun(t *testing.T) {
	cfg := testConfig(t)
	broker := newBroker()
	notifier := &SpyNotifier{}
	var out bytes.Buffer

	w := New(cfg, broker, zerolog.Nop(), WithOutput(&out), WithNotifier(notifier))
	report, err := w.RunPass(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Entries, 4)
	assert.False(t, report.Applied)
	assert.Equal(t, "submit", report.Entries[0].Action)
	assert.Equal(t, "amend", report.Entries[1].Action)
	assert.Equal(t, "rejected", report.Entries[2].Action)
	assert.Equal(t, "no_action", report.Entries[3].Action)

	expected := "AAPL:\napcacli order submit sell AAPL --quantity 100 --limit-price 150.15 --stop-price 151.50\n" +
		"MSFT:\napcacli order change o-msft --quantity 10 --limit-price 300.30 --stop-price 303.00\n"
	assert.Equal(t, expected, out.String())

	assert.Empty(t, broker.placed)
	assert.Empty(t, broker.replaced)

	saved, err := storage.LoadReport(cfg.ReportFile)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Entries, 4)
	assert.Equal(t, "found multiple stop-loss orders", saved.Entries[2].Error)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "DRY RUN")
	assert.Contains(t, notifier.messages[0], "NVDA: found multiple stop-loss orders")
}

func TestRunPass_Apply(t *testing.T) {
	cfg := testConfig(t)
	cfg.Apply = true
	broker := newBroker()
	broker.placeErr = map[string]error{"AAPL": errors.New("insufficient qty available for order")}
	var out bytes.Buffer

	w := New(cfg, broker, zerolog.Nop(), WithOutput(&out))
	report, err := w.RunPass(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL: insufficient qty available")
	require.NotNil(t, report)
	assert.True(t, report.Applied)
	assert.Empty(t, out.String())

	assert.Equal(t, "insufficient qty available for order", report.Entries[0].Error)
	assert.Equal(t, "o-msft-replaced", report.Entries[1].AppliedOrderID)
	assert.Empty(t, report.Entries[1].Error)

	req, ok := broker.replaced["o-msft"]
	require.True(t, ok)
	assert.True(t, req.Quantity.Equal(dec("10")))
	assert.Len(t, report.Failed(), 2)
}

func TestRunPass_SymbolFilter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Symbols = []string{"TSLA", "GME"}
	var out bytes.Buffer

	w := New(cfg, newBroker(), zerolog.Nop(), WithOutput(&out))
	report, err := w.RunPass(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "TSLA", report.Entries[0].Symbol)
	assert.Empty(t, out.String())
}

func TestRunPass_SnapshotFailure(t *testing.T) {
	cfg := testConfig(t)
	broker := newBroker()
	broker.listErr = errors.New("503 service unavailable")

	w := New(cfg, broker, zerolog.Nop())
	report, err := w.RunPass(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, broker.listErr)

	saved, err := storage.LoadReport(cfg.ReportFile)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRunPass_CleanPassIsSilent(t *testing.T) {
	cfg := testConfig(t)
	broker := &MockBroker{
		positions: []models.Position{position("AAPL", "100", "150.00", "0.06")},
		orders:    []models.Order{stopOrder("o-1", "AAPL", "100", "150.15", "151.50")},
	}
	notifier := &SpyNotifier{}
	var out bytes.Buffer

	w := New(cfg, broker, zerolog.Nop(), WithOutput(&out), WithNotifier(notifier))
	require.NoError(t, w.Run(context.Background()))

	assert.Empty(t, out.String())
	assert.Empty(t, notifier.messages)
}

func TestSummary(t *testing.T) {
	qty := dec("100")
	limit := dec("150.15")
	stop := dec("151.5")
	r := &storage.Report{
		Applied:   true,
		Positions: 2,
		Orders:    1,
		Entries: []storage.Entry{
			{Symbol: "AAPL", Action: "submit", Quantity: &qty, LimitPrice: &limit, StopPrice: &stop},
			{Symbol: "MSFT", Action: "no_action", Note: "total gain (2.00%) is below 5%"},
		},
	}

	msg, ok := Summary(r)
	require.True(t, ok)
	assert.Contains(t, msg, "APPLIED")
	assert.Contains(t, msg, "AAPL: new stop-loss for 100 shares | stop $151.50 / limit $150.15")
	assert.False(t, strings.Contains(msg, "MSFT"))

	_, ok = Summary(&storage.Report{Entries: r.Entries[1:]})
	assert.False(t, ok)
}
