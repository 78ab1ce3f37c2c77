package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service 策略可以使用的全部交易所能力
// 这是策略进入账本的唯一通路
type Service interface {
	// 现货市价交易
	SpotBuy(ctx context.Context, symbol Symbol, amount decimal.Decimal) error
	SpotSell(ctx context.Context, symbol Symbol, amount decimal.Decimal) error

	// 挂单
	PlaceBuyOrder(ctx context.Context, symbol Symbol, amount, price decimal.Decimal) (OrderId, error)
	PlaceSellOrder(ctx context.Context, symbol Symbol, amount, price decimal.Decimal) (OrderId, error)
	CancelOrder(ctx context.Context, id OrderId) error
	PendingOrders(ctx context.Context) []Order

	// 杠杆空头
	OpenShort(ctx context.Context, symbol Symbol, amount decimal.Decimal, leverage int) error
	// CloseShort 返回本次平仓的已实现盈亏
	CloseShort(ctx context.Context, symbol Symbol) (decimal.Decimal, error)
	ShortPosition(ctx context.Context, symbol Symbol) (ShortPosition, bool)
	AllShortPositions(ctx context.Context) []ShortPosition
	UnrealizedPnl(ctx context.Context, symbol Symbol) decimal.Decimal
	TotalUnrealizedPnl(ctx context.Context) decimal.Decimal

	// 费率
	FeeRates() FeeRates
	SetFeeRates(update FeeRateUpdate) error

	// 估值与余额查询，只读
	FiatBalance() decimal.Decimal
	Balance(symbol Symbol) decimal.Decimal
	TotalAssetValue() decimal.Decimal
}
