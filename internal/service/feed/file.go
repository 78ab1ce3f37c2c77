package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var _ Source = (*FileSource)(nil)

// candleRecord 磁盘上一根K线的JSON形式，时间为毫秒时间戳，数值为字符串
type candleRecord struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval,omitempty"`
	OpenTime  int64  `json:"openTime"`
	CloseTime int64  `json:"closeTime"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
}

// FileSource 从JSON文件加载K线序列
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Stream(ctx context.Context) (<-chan exchange.Candle, error) {
	candles, err := s.load()
	if err != nil {
		return nil, err
	}
	return NewSliceSource(candles).Stream(ctx)
}

func (s *FileSource) load() ([]exchange.Candle, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read candle file %s: %w", s.path, err)
	}

	var records []candleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse candle file %s: %w", s.path, err)
	}

	candles := make([]exchange.Candle, len(records))
	for i, r := range records {
		candle, err := r.toCandle()
		if err != nil {
			return nil, fmt.Errorf("candle file %s record %d: %w", s.path, i, err)
		}
		candles[i] = candle
	}
	return candles, nil
}

func (r candleRecord) toCandle() (exchange.Candle, error) {
	fields := map[string]string{
		"open": r.Open, "close": r.Close, "high": r.High, "low": r.Low, "volume": r.Volume,
	}
	parsed := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return exchange.Candle{}, fmt.Errorf("bad %s %q: %w", name, raw, err)
		}
		parsed[name] = value
	}

	return exchange.Candle{
		Symbol:    exchange.SplitSymbol(r.Symbol),
		Interval:  exchange.Interval(r.Interval),
		OpenTime:  time.UnixMilli(r.OpenTime),
		CloseTime: time.UnixMilli(r.CloseTime),
		Open:      parsed["open"],
		Close:     parsed["close"],
		High:      parsed["high"],
		Low:       parsed["low"],
		Volume:    parsed["volume"],
	}, nil
}
