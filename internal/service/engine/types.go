package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PerterPon/ff/internal/service/exchange"
)

// EquityPoint 回放过程中单根K线收盘后的账户总资产快照
type EquityPoint struct {
	Time  time.Time
	Value decimal.Decimal
}

type Result struct {
	Strategy       string
	Symbol         exchange.Symbol
	Interval       exchange.Interval
	StartTime      time.Time
	EndTime        time.Time
	InitialBalance decimal.Decimal
	FinalBalance   decimal.Decimal
	// ReturnRate = (Final - Initial) / Initial
	ReturnRate decimal.Decimal
	// MaxDrawdown 权益曲线上的最大回撤比例 (peak - trough) / peak
	MaxDrawdown  decimal.Decimal
	TradeCount   int64
	FillCount    int64
	Liquidations int64
	TotalFees    decimal.Decimal
	CandleCount  int64
	EquityCurve  []EquityPoint
}
