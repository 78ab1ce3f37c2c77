package strategy

import (
	"context"
	"log/slog"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var _ Strategy = (*Grid)(nil)

// Grid 网格策略
// 以当前价为中心，在下方挂 levels 层买单、上方挂 levels 层卖单，
// 每层间隔 step 比例，成交后围绕最新价补挂缺失的一侧
type Grid struct {
	symbol exchange.Symbol
	levels int
	step   decimal.Decimal // 相邻网格的价格间隔比例，如 0.01
	amount decimal.Decimal // 每层订单的数量

	initialized bool
}

func NewGrid(symbol exchange.Symbol, levels int, step, amount decimal.Decimal) *Grid {
	return &Grid{
		symbol: symbol,
		levels: levels,
		step:   step,
		amount: amount,
	}
}

func (s *Grid) Name() string {
	return "grid"
}

func (s *Grid) Execute(ctx context.Context, ex exchange.Service, candle exchange.Candle) error {
	if candle.Symbol != s.symbol {
		return nil
	}

	if !s.initialized {
		if err := s.setup(ctx, ex, candle.Close); err != nil {
			return err
		}
		s.initialized = true
		return nil
	}

	s.rearm(ctx, ex, candle.Close)
	return nil
}

// setup 买入网格库存并铺开初始网格
func (s *Grid) setup(ctx context.Context, ex exchange.Service, price decimal.Decimal) error {
	// 卖单需要库存，先按层数买入
	inventory := s.amount.Mul(decimal.NewFromInt(int64(s.levels)))
	if err := ex.SpotBuy(ctx, s.symbol, inventory); err != nil {
		return err
	}

	s.placeLevels(ctx, ex, price, s.levels, s.levels)
	return nil
}

// rearm 成交后补挂缺失的网格层
func (s *Grid) rearm(ctx context.Context, ex exchange.Service, price decimal.Decimal) {
	pending := lo.Filter(ex.PendingOrders(ctx), func(o exchange.Order, _ int) bool {
		return o.Symbol == s.symbol
	})
	buys := lo.CountBy(pending, func(o exchange.Order) bool { return o.Side == exchange.SideBuy })
	sells := len(pending) - buys

	s.placeLevels(ctx, ex, price, s.levels-buys, s.levels-sells)
}

// placeLevels 围绕 price 挂出 missingBuys 层买单和 missingSells 层卖单
// 资金或库存不足的层跳过，等待后续成交释放
func (s *Grid) placeLevels(ctx context.Context, ex exchange.Service, price decimal.Decimal, missingBuys, missingSells int) {
	one := decimal.NewFromInt(1)

	for i := 1; i <= missingBuys; i++ {
		level := price.Mul(one.Sub(s.step.Mul(decimal.NewFromInt(int64(i)))))
		if !level.IsPositive() {
			break
		}
		if _, err := ex.PlaceBuyOrder(ctx, s.symbol, s.amount, level); err != nil {
			slog.Debug("grid: skip buy level", "price", level, "err", err)
		}
	}

	for i := 1; i <= missingSells; i++ {
		level := price.Mul(one.Add(s.step.Mul(decimal.NewFromInt(int64(i)))))
		if _, err := ex.PlaceSellOrder(ctx, s.symbol, s.amount, level); err != nil {
			slog.Debug("grid: skip sell level", "price", level, "err", err)
		}
	}
}
