package ledger

import (
	"testing"

	"github.com/PerterPon/ff/internal/service/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() (*Ledger, *market.Table) {
	prices := market.NewTable()
	return New(prices), prices
}

func TestLedger_FiatBalance(t *testing.T) {
	l, _ := newTestLedger()

	assert.True(t, l.FiatBalance().IsZero())

	require.NoError(t, l.SetFiatBalance(decimal.NewFromInt(100000)))
	assert.True(t, l.FiatBalance().Equal(decimal.NewFromInt(100000)))
}

func TestLedger_SetFiatBalance_Negative(t *testing.T) {
	l, _ := newTestLedger()

	err := l.SetFiatBalance(decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeBalance)
}

func TestLedger_SubFiatBalance_Insufficient(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.SetFiatBalance(decimal.NewFromInt(100)))

	err := l.SubFiatBalance(decimal.NewFromInt(101))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// 失败的扣减不产生任何副作用
	assert.True(t, l.FiatBalance().Equal(decimal.NewFromInt(100)))
}

func TestLedger_AddSubFiat(t *testing.T) {
	l, _ := newTestLedger()

	l.AddFiatBalance(decimal.NewFromInt(500))
	require.NoError(t, l.SubFiatBalance(decimal.NewFromInt(200)))
	assert.True(t, l.FiatBalance().Equal(decimal.NewFromInt(300)))
}

func TestLedger_Balance_UnknownSymbol(t *testing.T) {
	l, _ := newTestLedger()

	// 未见过的符号返回 0，不报错
	assert.True(t, l.Balance("BTCUSDT").IsZero())
}

func TestLedger_SetBalance_Negative(t *testing.T) {
	l, _ := newTestLedger()

	err := l.SetBalance("BTCUSDT", decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeBalance)
}

func TestLedger_SubBalance_Insufficient(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.SetBalance("BTCUSDT", decimal.NewFromFloat(0.1)))

	err := l.SubBalance("BTCUSDT", decimal.NewFromFloat(0.2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, l.Balance("BTCUSDT").Equal(decimal.NewFromFloat(0.1)))
}

func TestLedger_Balances_Snapshot(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.SetBalance("BTCUSDT", decimal.NewFromFloat(0.5)))

	snapshot := l.Balances()
	snapshot["BTCUSDT"] = decimal.NewFromInt(999)

	// 修改快照不影响内部状态
	assert.True(t, l.Balance("BTCUSDT").Equal(decimal.NewFromFloat(0.5)))
}

func TestLedger_TotalBalance(t *testing.T) {
	l, prices := newTestLedger()

	require.NoError(t, l.SetFiatBalance(decimal.NewFromInt(10000)))
	require.NoError(t, l.SetBalance("BTCUSDT", decimal.NewFromFloat(0.1)))
	prices.Set("BTCUSDT", decimal.NewFromInt(40000))

	// 10000 + 0.1*40000 = 14000
	assert.True(t, l.TotalBalance(decimal.Zero).Equal(decimal.NewFromInt(14000)))
}

func TestLedger_TotalBalance_SkipsUnpricedSymbol(t *testing.T) {
	l, prices := newTestLedger()

	require.NoError(t, l.SetFiatBalance(decimal.NewFromInt(10000)))
	require.NoError(t, l.SetBalance("BTCUSDT", decimal.NewFromFloat(0.1)))
	require.NoError(t, l.SetBalance("ETHUSDT", decimal.NewFromInt(5)))
	prices.Set("BTCUSDT", decimal.NewFromInt(40000))
	// ETHUSDT 没有价格，按 0 计入

	assert.True(t, l.TotalBalance(decimal.Zero).Equal(decimal.NewFromInt(14000)))
}

func TestLedger_TotalBalance_WithUnrealizedPnl(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.SetFiatBalance(decimal.NewFromInt(10000)))

	total := l.TotalBalance(decimal.NewFromInt(-500))
	assert.True(t, total.Equal(decimal.NewFromInt(9500)))
}
