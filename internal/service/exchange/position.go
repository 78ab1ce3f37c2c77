package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShortPosition 杠杆空头持仓，每个符号同时最多一个
// 再次开空合并进现有持仓：数量累加，入场价按名义金额加权平均，
// 保证金累加，杠杆和创建时间保留首次开仓的值
type ShortPosition struct {
	Symbol     Symbol
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal // 加权平均入场价
	Leverage   int
	Margin     decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UnrealizedPnl (入场价 - 当前价) × 数量，价格下跌为正
func (p ShortPosition) UnrealizedPnl(currentPrice decimal.Decimal) decimal.Decimal {
	return p.EntryPrice.Sub(currentPrice).Mul(p.Quantity)
}

// Liquidation 强制平仓事件
// 触发时持仓已按平仓逻辑结算完毕，账本效果不可逆，
// 调用方应当把它当作信息事件而不是失败
type Liquidation struct {
	Symbol      Symbol
	Price       decimal.Decimal // 触发强平的价格
	RealizedPnl decimal.Decimal
	Fee         decimal.Decimal
	Time        time.Time
}

// PriceUpdateResult 一次价格更新产生的全部结算动作
type PriceUpdateResult struct {
	Liquidation *Liquidation
	Fills       []OrderFill
}
