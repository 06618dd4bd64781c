package positions

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/holdings/internal/domain"
)

type mockTransactionSource struct {
	txs map[string][]domain.Transaction
}

func (m *mockTransactionSource) ListBySymbol(symbol string) ([]domain.Transaction, error) {
	return m.txs[symbol], nil
}

func (m *mockTransactionSource) Symbols() ([]string, error) {
	symbols := make([]string, 0, len(m.txs))
	for s := range m.txs {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

type mockIncomeSource struct {
	totals map[string]float64
}

func (m *mockIncomeSource) TotalBySymbol(symbol string) (float64, error) {
	return m.totals[symbol], nil
}

type mockQuoteProvider struct {
	quotes map[string]*domain.Quote
	chains map[string][]domain.OptionQuote
	err    error
}

func (m *mockQuoteProvider) Quote(symbol string) (*domain.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes[symbol], nil
}

func (m *mockQuoteProvider) Chain(symbol string, expiry time.Time) ([]domain.OptionQuote, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chains[symbol], nil
}

func newTestService(txs *mockTransactionSource, incomes *mockIncomeSource, quotes *mockQuoteProvider) *Service {
	svc := NewService(txs, incomes, quotes, zerolog.Nop())
	svc.now = func() time.Time { return day(100) }
	return svc
}

func buyTx(symbol string, d time.Time, qty, price float64) domain.Transaction {
	return domain.Transaction{Symbol: symbol, Instrument: domain.InstrumentEquity, Date: d, Quantity: qty, Price: price}
}

func TestServiceListOpen(t *testing.T) {
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {buyTx("ACME", day(0), 10, 100)},
		"ZULU": {buyTx("ZULU", day(0), 5, 20)},
		"GONE": {buyTx("GONE", day(0), 10, 50), buyTx("GONE", day(10), -10, 55)},
	}}
	quotes := &mockQuoteProvider{quotes: map[string]*domain.Quote{
		"ACME": {Symbol: "ACME", Price: 110, AsOf: day(100)},
	}}
	svc := newTestService(txs, &mockIncomeSource{}, quotes)

	result, err := svc.ListOpen()
	require.NoError(t, err)

	// GONE is fully disposed and filtered; output is sorted by symbol.
	require.Len(t, result, 2)
	assert.Equal(t, "ACME", result[0].Symbol)
	assert.Equal(t, "ZULU", result[1].Symbol)

	require.NotNil(t, result[0].Value)
	assert.Equal(t, 1100.0, *result[0].Value)
	assert.Nil(t, result[1].Value, "no quote for ZULU degrades the view")
}

func TestServiceListClosed(t *testing.T) {
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {buyTx("ACME", day(0), 10, 100)},
		"GONE": {buyTx("GONE", day(0), 10, 50), buyTx("GONE", day(10), -10, 55)},
	}}
	svc := newTestService(txs, &mockIncomeSource{totals: map[string]float64{"GONE": 7}}, &mockQuoteProvider{})

	result, err := svc.ListClosed()
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, "GONE", result[0].Symbol)
	assert.Equal(t, 50.0, result[0].Gain)
	assert.Equal(t, 7.0, result[0].Income, "user income attaches to the realized view once disposed")
}

func TestServiceOversoldFlagsWithoutOmitting(t *testing.T) {
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {buyTx("ACME", day(0), 10, 100), buyTx("ACME", day(10), -15, 110)},
		"OKAY": {buyTx("OKAY", day(0), 10, 100)},
	}}
	svc := newTestService(txs, &mockIncomeSource{}, &mockQuoteProvider{})

	result, err := svc.ListClosed()
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, "ACME", result[0].Symbol)
	assert.Contains(t, result[0].Flags, FlagOversold)

	open, err := svc.ListOpen()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "OKAY", open[0].Symbol, "one bad holding never hides the others")
}

func TestServiceSplitAdjustment(t *testing.T) {
	// 10 @ 100 bought before a 2:1 split reads as 20 @ 50.
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {buyTx("ACME", day(0), 10, 100)},
	}}
	quotes := &mockQuoteProvider{quotes: map[string]*domain.Quote{
		"ACME": {
			Symbol: "ACME",
			Price:  60,
			AsOf:   day(100),
			Splits: []domain.SplitEvent{{Date: day(50), Numerator: 2, Denominator: 1}},
		},
	}}
	svc := newTestService(txs, &mockIncomeSource{}, quotes)

	pos, err := svc.Open("ACME")
	require.NoError(t, err)

	assert.Equal(t, 20.0, pos.Quantity)
	assert.Equal(t, 50.0, pos.AvgPrice)
	assert.Equal(t, 1000.0, pos.CostBasis, "cost basis survives the split")
}

func TestServiceQuoteFailureDegrades(t *testing.T) {
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {buyTx("ACME", day(0), 10, 100)},
	}}
	svc := newTestService(txs, &mockIncomeSource{}, &mockQuoteProvider{err: errors.New("provider down")})

	pos, err := svc.Open("ACME")
	require.NoError(t, err, "market data loss never fails the holding")
	assert.Nil(t, pos.Price)
	assert.Equal(t, 1000.0, pos.CostBasis)
}

func TestServiceUnknownSymbol(t *testing.T) {
	svc := newTestService(&mockTransactionSource{txs: map[string][]domain.Transaction{}}, &mockIncomeSource{}, &mockQuoteProvider{})

	_, err := svc.Open("NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCoveredCall(t *testing.T) {
	expiry := day(130)
	txs := &mockTransactionSource{txs: map[string][]domain.Transaction{
		"ACME": {
			buyTx("ACME", day(0), 100, 48),
			{
				Symbol: "ACME", Contract: "ACME260611C52", Instrument: domain.InstrumentCall,
				Date: day(90), Quantity: -1, Price: 1.20, Strike: 52, Expiry: expiry,
			},
		},
	}}
	quotes := &mockQuoteProvider{
		quotes: map[string]*domain.Quote{"ACME": {Symbol: "ACME", Price: 50, AsOf: day(100)}},
		chains: map[string][]domain.OptionQuote{"ACME": {
			{Contract: "ACME260611C52", Type: domain.InstrumentCall, Strike: 52, Expiry: expiry, Bid: 1.40, Ask: 1.60},
		}},
	}
	svc := newTestService(txs, &mockIncomeSource{}, quotes)

	pos, err := svc.CoveredCall("ACME")
	require.NoError(t, err)

	assert.Equal(t, ShapeCovered, pos.Shape)
	assert.Equal(t, 100.0, pos.Shares)
	require.NotNil(t, pos.ActiveLeg)
	assert.Equal(t, "ACME260611C52", pos.ActiveLeg.Contract)
	require.NotNil(t, pos.UnrealizedOptionGain)
	assert.InDelta(t, -30.0, *pos.UnrealizedOptionGain, 1e-9)
	require.NotNil(t, pos.DaysToExpiry)
	assert.InDelta(t, 30.0, *pos.DaysToExpiry, 1e-9)
}
