package feed

import (
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// Trend 合成K线的价格走向
type Trend string

const (
	TrendUp       Trend = "up"       // 单边上涨
	TrendDown     Trend = "down"     // 单边下跌
	TrendSideways Trend = "sideways" // 横盘小幅波动
	TrendVolatile Trend = "volatile" // 上下波动
)

// GenerateCandles 生成确定性的合成K线序列，回测冒烟和单测使用
// basePrice 基础价格，上涨/下跌趋势每根变动 0.5%
func GenerateCandles(symbol exchange.Symbol, interval exchange.Interval, startTime time.Time, basePrice float64, count int, trend Trend) []exchange.Candle {
	candles := make([]exchange.Candle, count)

	for i := 0; i < count; i++ {
		var price float64

		switch trend {
		case TrendUp:
			price = basePrice * (1 + float64(i)*0.005)
		case TrendDown:
			price = basePrice * (1 - float64(i)*0.005)
		case TrendVolatile:
			if i%2 == 0 {
				price = basePrice * (1 + float64(i%10)*0.002)
			} else {
				price = basePrice * (1 - float64(i%10)*0.002)
			}
		default: // sideways
			price = basePrice * (1 + (float64(i%5)-2)*0.001)
		}

		openTime := startTime.Add(time.Duration(i) * interval.Duration())
		closeTime := openTime.Add(interval.Duration())

		candles[i] = exchange.Candle{
			Symbol:    symbol,
			Interval:  interval,
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      decimal.NewFromFloat(price * 0.999),
			Close:     decimal.NewFromFloat(price),
			High:      decimal.NewFromFloat(price * 1.005),
			Low:       decimal.NewFromFloat(price * 0.995),
			Volume:    decimal.NewFromFloat(1000 + float64(i)*10),
		}
	}

	return candles
}

// NewGeneratedSource 合成K线数据源
func NewGeneratedSource(symbol exchange.Symbol, interval exchange.Interval, startTime time.Time, basePrice float64, count int, trend Trend) *SliceSource {
	return NewSliceSource(GenerateCandles(symbol, interval, startTime, basePrice, count, trend))
}
