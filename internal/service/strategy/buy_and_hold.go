package strategy

import (
	"context"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var _ Strategy = (*BuyAndHold)(nil)

// BuyAndHold 基准策略：第一根K线用指定比例的法币买入后一直持有
type BuyAndHold struct {
	symbol   exchange.Symbol
	fraction decimal.Decimal // 投入的法币比例 (0,1]
	bought   bool
}

func NewBuyAndHold(symbol exchange.Symbol, fraction decimal.Decimal) *BuyAndHold {
	return &BuyAndHold{
		symbol:   symbol,
		fraction: fraction,
	}
}

func (s *BuyAndHold) Name() string {
	return "buy_and_hold"
}

func (s *BuyAndHold) Execute(ctx context.Context, ex exchange.Service, candle exchange.Candle) error {
	if s.bought || candle.Symbol != s.symbol {
		return nil
	}

	// 预留手续费，按 投入金额/(1+费率) 反推可买数量
	budget := ex.FiatBalance().Mul(s.fraction)
	feeRate := ex.FeeRates().SpotBuy
	amount := budget.Div(decimal.NewFromInt(1).Add(feeRate)).Div(candle.Close)
	if !amount.IsPositive() {
		return nil
	}

	if err := ex.SpotBuy(ctx, s.symbol, amount); err != nil {
		return err
	}
	s.bought = true
	return nil
}
