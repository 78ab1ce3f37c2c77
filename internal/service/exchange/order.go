package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderId string

func (id OrderId) IsZero() bool {
	return id == ""
}

func (id OrderId) ToString() string {
	return string(id)
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order 挂单（限价单）
// 买单在下单时立即冻结 名义金额+手续费，冻结额原样记录在 Frozen 上，
// 撤单时按记录退还，不受之后价格变动影响
// 卖单在下单时冻结 Quantity 数量的持仓，手续费在成交时才收取
type Order struct {
	Id        OrderId
	Symbol    Symbol
	Side      Side
	Price     decimal.Decimal // 限价
	Quantity  decimal.Decimal
	Frozen    decimal.Decimal // 买单冻结的法币总额，卖单为零
	CreatedAt time.Time
}

// OrderFill 一次挂单成交的结算结果
type OrderFill struct {
	Order Order
	Fee   decimal.Decimal
}
