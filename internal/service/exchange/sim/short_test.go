package sim

import (
	"context"
	"testing"
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/PerterPon/ff/internal/service/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenShort(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	// 保证金 4000/10 = 400，手续费 4000×0.001 = 4
	assertDecimalEqual(t, d(99596), ex.FiatBalance())

	pos, exists := ex.ShortPosition(ctx, btc)
	require.True(t, exists)
	assertDecimalEqual(t, d(0.1), pos.Quantity)
	assertDecimalEqual(t, d(40000), pos.EntryPrice)
	assertDecimalEqual(t, d(400), pos.Margin)
	assert.Equal(t, 10, pos.Leverage)
}

func TestOpenShort_InvalidInput(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	assert.ErrorIs(t, ex.OpenShort(ctx, btc, decimal.Zero, 10), exchange.ErrInvalidAmount)
	assert.ErrorIs(t, ex.OpenShort(ctx, btc, d(0.1), 0), exchange.ErrInvalidLeverage)
}

func TestOpenShort_InsufficientMargin(t *testing.T) {
	ex, prices := createTestExchange(t, 100)
	prices.Set(btc.ToString(), d(40000))

	err := ex.OpenShort(context.Background(), btc, d(0.1), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrInsufficientMargin)

	assertDecimalEqual(t, d(100), ex.FiatBalance())
	_, exists := ex.ShortPosition(context.Background(), btc)
	assert.False(t, exists)
}

// 合并正确性：qty a @ P1 再 qty b @ P2，入场价 = (a·P1+b·P2)/(a+b)，
// 保证金相加，杠杆和创建时间保留首次开仓的值
func TestOpenShort_MergeWeightedAverage(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	firstOpen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ex.SetTime(firstOpen)
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	prices.Set(btc.ToString(), d(44000))
	ex.SetTime(firstOpen.Add(time.Hour))
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.3), 5))

	pos, exists := ex.ShortPosition(ctx, btc)
	require.True(t, exists)

	// (0.1×40000 + 0.3×44000) / 0.4 = 17200/0.4 = 43000
	assertDecimalEqual(t, d(43000), pos.EntryPrice)
	assertDecimalEqual(t, d(0.4), pos.Quantity)
	// 400 + 44000×0.3/5 = 400 + 2640 = 3040
	assertDecimalEqual(t, d(3040), pos.Margin)
	// 杠杆与创建时间来自首次开仓
	assert.Equal(t, 10, pos.Leverage)
	assert.Equal(t, firstOpen, pos.CreatedAt)
	assert.Equal(t, firstOpen.Add(time.Hour), pos.UpdatedAt)
}

func TestCloseShort_RealizedPnl(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	// 价格下跌对空头有利
	prices.Set(btc.ToString(), d(38000))
	realized, err := ex.CloseShort(ctx, btc)
	require.NoError(t, err)

	// (40000-38000)×0.1 = 200
	assertDecimalEqual(t, d(200), realized)

	// 99596 + 保证金400 + 盈亏200 - 平仓手续费 38000×0.1×0.001=3.8
	assertDecimalEqual(t, d(100192.2), ex.FiatBalance())

	_, exists := ex.ShortPosition(ctx, btc)
	assert.False(t, exists)
}

func TestCloseShort_NotFound(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	_, err := ex.CloseShort(context.Background(), btc)
	assert.ErrorIs(t, err, exchange.ErrShortNotFound)
}

func TestUnrealizedPnl_SignConvention(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	// 无持仓的符号恒为 0
	assert.True(t, ex.UnrealizedPnl(ctx, eth).IsZero())

	prices.Set(btc.ToString(), d(38000))
	assertDecimalEqual(t, d(200), ex.UnrealizedPnl(ctx, btc))

	prices.Set(btc.ToString(), d(42000))
	assertDecimalEqual(t, d(-200), ex.UnrealizedPnl(ctx, btc))
}

func TestTotalUnrealizedPnl(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))
	prices.Set(eth.ToString(), d(3000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))
	require.NoError(t, ex.OpenShort(ctx, eth, d(1), 5))

	prices.Set(btc.ToString(), d(39000))
	prices.Set(eth.ToString(), d(3100))

	// 100 + (-100) = 0
	assertDecimalEqual(t, decimal.Zero, ex.TotalUnrealizedPnl(ctx))
}

// 强平触发：权益/仓位价值 < 5% 时立即按平仓逻辑结算
func TestCheckLiquidation_Fires(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	// 价格翻倍：权益 = 400 + (40000-80000)×0.1 = -3600，比例 -0.45
	prices.Set(btc.ToString(), d(80000))
	liq, err := ex.CheckLiquidation(ctx, btc)
	require.NoError(t, err)
	require.NotNil(t, liq)

	assertDecimalEqual(t, d(-4000), liq.RealizedPnl)
	_, exists := ex.ShortPosition(ctx, btc)
	assert.False(t, exists)

	// 结算已经落账：99596 + 400 - 4000 - 80000×0.1×0.001
	assertDecimalEqual(t, d(95988), ex.FiatBalance())
}

// 阈值边界：比例 >= 5% 不触发，< 5% 触发
func TestCheckLiquidation_Threshold(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	// P=41904: 权益 209.6 / 4190.4 ≈ 0.05002，不触发
	prices.Set(btc.ToString(), d(41904))
	liq, err := ex.CheckLiquidation(ctx, btc)
	require.NoError(t, err)
	assert.Nil(t, liq)
	_, exists := ex.ShortPosition(ctx, btc)
	assert.True(t, exists)

	// P=41905: 权益 209.5 / 4190.5 ≈ 0.04999，触发
	prices.Set(btc.ToString(), d(41905))
	liq, err = ex.CheckLiquidation(ctx, btc)
	require.NoError(t, err)
	require.NotNil(t, liq)
	_, exists = ex.ShortPosition(ctx, btc)
	assert.False(t, exists)
}

func TestCheckLiquidation_NoPosition(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	liq, err := ex.CheckLiquidation(context.Background(), btc)
	require.NoError(t, err)
	assert.Nil(t, liq)
}

// 价格更新先处理强平，再处理挂单成交
func TestOnPriceUpdate_LiquidationBeforeFills(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))
	buyId, err := ex.PlaceBuyOrder(ctx, btc, d(0.01), d(79000))
	require.NoError(t, err)

	prices.Set(btc.ToString(), d(80000))
	result, err := ex.OnPriceUpdate(ctx, btc, d(80000))
	require.NoError(t, err)

	require.NotNil(t, result.Liquidation)
	assertDecimalEqual(t, d(80000), result.Liquidation.Price)

	// 80000 > 79000 限价，买单不成交
	assert.Empty(t, result.Fills)
	pending := ex.PendingOrders(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, buyId, pending[0].Id)

	_, exists := ex.ShortPosition(ctx, btc)
	assert.False(t, exists)
}

func TestOpenShort_PriceNotFound(t *testing.T) {
	ex, _ := createTestExchange(t, 100000)

	err := ex.OpenShort(context.Background(), btc, d(0.1), 10)
	assert.ErrorIs(t, err, market.ErrPriceNotFound)
}

func TestAllShortPositions_Sorted(t *testing.T) {
	ex, prices := createTestExchange(t, 100000)
	prices.Set(btc.ToString(), d(40000))
	prices.Set(eth.ToString(), d(3000))

	ctx := context.Background()
	require.NoError(t, ex.OpenShort(ctx, eth, d(1), 5))
	require.NoError(t, ex.OpenShort(ctx, btc, d(0.1), 10))

	positions := ex.AllShortPositions(ctx)
	require.Len(t, positions, 2)
	assert.Equal(t, btc, positions[0].Symbol)
	assert.Equal(t, eth, positions[1].Symbol)
}
