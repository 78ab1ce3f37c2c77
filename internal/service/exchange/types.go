package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol 交易对
type Symbol struct {
	Base  string
	Quote string
}

func SplitSymbol(s string) Symbol {
	s = strings.ToUpper(s)
	// 常见 Quote 列表
	quotes := []string{"USDT", "BUSD", "USDC", "BTC", "ETH"}
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return Symbol{Base: strings.TrimSuffix(s, q), Quote: q}
		}
	}
	// fallback
	return Symbol{Base: s}
}

func (s Symbol) IsZero() bool {
	return s.Base == "" || s.Quote == ""
}

func (s Symbol) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s Symbol) ToSlashString() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval2h:
		return 2 * time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval6h:
		return 6 * time.Hour
	case Interval8h:
		return 8 * time.Hour
	case Interval12h:
		return 12 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval3d:
		return 72 * time.Hour
	case Interval1w:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
)

// Candle 单根K线，回放的基本单位
type Candle struct {
	Symbol    Symbol
	Interval  Interval
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Volume    decimal.Decimal // 成交量
}
