package feed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btc = exchange.Symbol{Base: "BTC", Quote: "USDT"}

func collect(t *testing.T, src Source) []exchange.Candle {
	t.Helper()
	ch, err := src.Stream(context.Background())
	require.NoError(t, err)

	var candles []exchange.Candle
	for candle := range ch {
		candles = append(candles, candle)
	}
	return candles
}

func TestGenerateCandles_Up(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := GenerateCandles(btc, exchange.Interval1h, start, 40000, 10, TrendUp)

	require.Len(t, candles, 10)
	assert.True(t, candles[0].Close.LessThan(candles[9].Close))
	assert.Equal(t, start, candles[0].OpenTime)
	assert.Equal(t, start.Add(time.Hour), candles[0].CloseTime)
	assert.Equal(t, btc, candles[0].Symbol)
}

func TestGenerateCandles_Down(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := GenerateCandles(btc, exchange.Interval1h, start, 40000, 10, TrendDown)

	assert.True(t, candles[9].Close.LessThan(candles[0].Close))
}

func TestSliceSource_StreamsInTimeOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := GenerateCandles(btc, exchange.Interval1h, start, 40000, 5, TrendUp)

	// 乱序传入，流式输出仍按时间排序
	shuffled := []exchange.Candle{candles[3], candles[0], candles[4], candles[1], candles[2]}
	out := collect(t, NewSliceSource(shuffled))

	require.Len(t, out, 5)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i-1].OpenTime.Before(out[i].OpenTime))
	}
}

func TestSliceSource_ContextCancel(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewGeneratedSource(btc, exchange.Interval1h, start, 40000, 100, TrendUp)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Stream(ctx)
	require.NoError(t, err)

	<-ch
	cancel()

	// 取消后通道最终关闭
	for range ch {
	}
}

func TestFileSource(t *testing.T) {
	records := []candleRecord{
		{
			Symbol:   "BTCUSDT",
			OpenTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			CloseTime: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC).
				UnixMilli(),
			Open: "39900", Close: "40000", High: "40100", Low: "39800", Volume: "1200",
		},
		{
			Symbol:   "BTCUSDT",
			OpenTime: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC).UnixMilli(),
			CloseTime: time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC).
				UnixMilli(),
			Open: "40000", Close: "40200", High: "40300", Low: "39950", Volume: "1100",
		},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "candles.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out := collect(t, NewFileSource(path))
	require.Len(t, out, 2)
	assert.Equal(t, btc, out[0].Symbol)
	assert.True(t, out[0].Close.Equal(out[1].Open))
}

func TestFileSource_BadFile(t *testing.T) {
	_, err := NewFileSource("/nonexistent/candles.json").Stream(context.Background())
	require.Error(t, err)
}

func TestFileSource_BadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"symbol":"BTCUSDT","open":"not-a-number","close":"1","high":"1","low":"1","volume":"1"}]`), 0o644))

	_, err := NewFileSource(path).Stream(context.Background())
	require.Error(t, err)
}
