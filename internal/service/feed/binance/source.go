package binance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/PerterPon/ff/internal/service/feed"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

var _ feed.Source = (*Source)(nil)

// 单次请求的最大K线数量（币安合约API上限）
const pageLimit = 1000

// Source 从币安合约API分页拉取历史K线作为回测数据源
type Source struct {
	cli      *futures.Client
	symbol   exchange.Symbol
	interval exchange.Interval

	startTime time.Time
	endTime   time.Time
}

func NewSource(cli *futures.Client, symbol exchange.Symbol, interval exchange.Interval, startTime, endTime time.Time) *Source {
	return &Source{
		cli:       cli,
		symbol:    symbol,
		interval:  interval,
		startTime: startTime,
		endTime:   endTime,
	}
}

func (s *Source) Stream(ctx context.Context) (<-chan exchange.Candle, error) {
	ch := make(chan exchange.Candle, pageLimit)

	go func() {
		defer close(ch)

		current := s.startTime
		for current.Before(s.endTime) {
			klines, err := s.fetchPage(ctx, current)
			if err != nil {
				slog.Error("fetch klines failed", "symbol", s.symbol.ToString(), "err", err)
				return
			}
			if len(klines) == 0 {
				return
			}

			for _, k := range klines {
				candle, err := s.convert(k)
				if err != nil {
					slog.Error("bad kline from api", "symbol", s.symbol.ToString(), "err", err)
					return
				}
				if !candle.OpenTime.Before(s.endTime) {
					return
				}
				select {
				case ch <- candle:
				case <-ctx.Done():
					return
				}
			}

			// 下一页从最后一根K线之后开始
			current = time.UnixMilli(klines[len(klines)-1].CloseTime).Add(time.Millisecond)
		}
	}()

	return ch, nil
}

func (s *Source) fetchPage(ctx context.Context, from time.Time) ([]*futures.Kline, error) {
	return s.cli.NewKlinesService().
		Symbol(s.symbol.ToString()). // 币安合约API使用 BTCUSDT 格式，不是 BTC/USDT
		Interval(s.interval.ToString()).
		StartTime(from.UnixMilli()).
		EndTime(s.endTime.UnixMilli()).
		Limit(pageLimit).
		Do(ctx)
}

func (s *Source) convert(k *futures.Kline) (exchange.Candle, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("parse open: %w", err)
	}
	klineClose, err := decimal.NewFromString(k.Close)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("parse close: %w", err)
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("parse low: %w", err)
	}
	volume, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return exchange.Candle{}, fmt.Errorf("parse volume: %w", err)
	}

	return exchange.Candle{
		Symbol:    s.symbol,
		Interval:  s.interval,
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Open:      open,
		Close:     klineClose,
		High:      high,
		Low:       low,
		Volume:    volume,
	}, nil
}
