package engine

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/PerterPon/ff/internal/service/exchange/sim"
	"github.com/PerterPon/ff/internal/service/feed"
	"github.com/PerterPon/ff/internal/service/market"
	"github.com/PerterPon/ff/internal/service/strategy"
)

// Backtest 按K线顺序回放行情, 在模拟交易所上执行策略
type Backtest struct {
	prices *market.Table
	ex     *sim.Exchange
	source feed.Source
	strat  strategy.Strategy

	initialBalance decimal.Decimal
}

func NewBacktest(source feed.Source, strat strategy.Strategy, initialBalance decimal.Decimal) *Backtest {
	prices := market.NewTable()
	return &Backtest{
		prices:         prices,
		ex:             sim.NewExchange(prices, initialBalance),
		source:         source,
		strat:          strat,
		initialBalance: initialBalance,
	}
}

// Exchange 暴露底层模拟交易所, 方便外部在回放前调整费率等
func (b *Backtest) Exchange() *sim.Exchange {
	return b.ex
}

// Run 消费数据源直到耗尽或ctx取消, 返回统计结果
// 每根K线: 更新价格表 -> 推进模拟时钟 -> 执行策略 -> 触发挂单/强平结算 -> 记录权益
func (b *Backtest) Run(ctx context.Context) (*Result, error) {
	ch, err := b.source.Stream(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Strategy:       b.strat.Name(),
		InitialBalance: b.initialBalance,
	}

	for candle := range ch {
		if res.CandleCount == 0 {
			res.Symbol = candle.Symbol
			res.Interval = candle.Interval
			res.StartTime = candle.OpenTime
		}
		res.EndTime = candle.CloseTime
		res.CandleCount++

		b.prices.Set(candle.Symbol.ToString(), candle.Close)
		b.ex.SetTime(candle.CloseTime)

		// 策略报错不中断回放, 只记录日志
		if err := b.strat.Execute(ctx, b.ex, candle); err != nil {
			slog.Warn("strategy execute failed",
				slog.String("strategy", b.strat.Name()),
				slog.Time("time", candle.CloseTime),
				slog.Any("err", err))
		}

		update, err := b.ex.OnPriceUpdate(ctx, candle.Symbol, candle.Close)
		if err != nil {
			return nil, err
		}
		res.FillCount += int64(len(update.Fills))
		if update.Liquidation != nil {
			res.Liquidations++
			slog.Info("short position liquidated",
				slog.String("symbol", candle.Symbol.ToString()),
				slog.String("price", update.Liquidation.Price.String()),
				slog.String("realizedPnl", update.Liquidation.RealizedPnl.String()))
		}

		res.EquityCurve = append(res.EquityCurve, EquityPoint{
			Time:  candle.CloseTime,
			Value: b.ex.TotalAssetValue(),
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	res.FinalBalance = b.ex.TotalAssetValue()
	if !b.initialBalance.IsZero() {
		res.ReturnRate = res.FinalBalance.Sub(b.initialBalance).Div(b.initialBalance)
	}
	res.MaxDrawdown = maxDrawdown(res.EquityCurve)
	res.TradeCount = b.ex.TradeCount()
	res.TotalFees = b.ex.TotalFees()
	return res, nil
}

func maxDrawdown(curve []EquityPoint) decimal.Decimal {
	maxDd := decimal.Zero
	if len(curve) == 0 {
		return maxDd
	}
	peak := curve[0].Value
	for _, p := range curve[1:] {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
			continue
		}
		if peak.IsZero() {
			continue
		}
		dd := peak.Sub(p.Value).Div(peak)
		if dd.GreaterThan(maxDd) {
			maxDd = dd
		}
	}
	return maxDd
}
