package feed

import (
	"context"

	"github.com/PerterPon/ff/internal/service/exchange"
)

// Source K线数据源
// 按时间顺序回放一段有限的K线序列，可以有多种实现：
// 内存切片、模拟数据、本地文件、币安API等
type Source interface {
	// Stream 启动回放，序列结束后关闭通道
	Stream(ctx context.Context) (<-chan exchange.Candle, error)
}
