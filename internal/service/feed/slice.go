package feed

import (
	"context"
	"sort"

	"github.com/PerterPon/ff/internal/service/exchange"
)

var _ Source = (*SliceSource)(nil)

// SliceSource 内存中的K线序列
type SliceSource struct {
	candles []exchange.Candle
}

func NewSliceSource(candles []exchange.Candle) *SliceSource {
	sorted := make([]exchange.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})
	return &SliceSource{candles: sorted}
}

func (s *SliceSource) Stream(ctx context.Context) (<-chan exchange.Candle, error) {
	ch := make(chan exchange.Candle, 10)

	go func() {
		defer close(ch)
		for _, candle := range s.candles {
			select {
			case ch <- candle:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
