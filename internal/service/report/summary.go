package report

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/PerterPon/ff/internal/service/engine"
	"github.com/PerterPon/ff/pkg/decimalx"
)

// Summary 把回测结果渲染成可读的文本报告
func Summary(result *engine.Result) string {
	var sb strings.Builder

	sb.WriteString("==== Backtest Report ====\n")
	fmt.Fprintf(&sb, "strategy:        %s\n", result.Strategy)
	fmt.Fprintf(&sb, "symbol:          %s\n", result.Symbol.ToSlashString())
	fmt.Fprintf(&sb, "interval:        %s\n", result.Interval.ToString())
	fmt.Fprintf(&sb, "period:          %s ~ %s\n",
		result.StartTime.Format("2006-01-02 15:04"), result.EndTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "candles:         %d\n", result.CandleCount)
	fmt.Fprintf(&sb, "initial balance: %s\n", result.InitialBalance.String())
	fmt.Fprintf(&sb, "final balance:   %s\n", result.FinalBalance.StringFixed(4))
	fmt.Fprintf(&sb, "return:          %s%%\n", result.ReturnRate.Mul(decimal.NewFromInt(100)).StringFixed(4))
	fmt.Fprintf(&sb, "max drawdown:    %s%%\n", result.MaxDrawdown.Mul(decimal.NewFromInt(100)).StringFixed(4))
	fmt.Fprintf(&sb, "trades:          %d\n", result.TradeCount)
	fmt.Fprintf(&sb, "order fills:     %d\n", result.FillCount)
	fmt.Fprintf(&sb, "liquidations:    %d\n", result.Liquidations)
	fmt.Fprintf(&sb, "total fees:      %s\n", result.TotalFees.StringFixed(4))
	fmt.Fprintf(&sb, "equity trend:    %s\n", equityTrend(result.EquityCurve))

	return sb.String()
}

// equityTrend 用归一化线性回归斜率粗分权益曲线走向
func equityTrend(curve []engine.EquityPoint) string {
	if len(curve) < 2 {
		return "flat"
	}
	values := lo.Map(curve, func(p engine.EquityPoint, _ int) decimal.Decimal {
		return p.Value
	})
	slope := decimalx.Slope(values)
	switch {
	case slope.GreaterThan(decimal.NewFromFloat(0.001)):
		return "up"
	case slope.LessThan(decimal.NewFromFloat(-0.001)):
		return "down"
	default:
		return "flat"
	}
}
