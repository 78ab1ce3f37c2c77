package strategy

import (
	"context"

	"github.com/PerterPon/ff/internal/service/exchange"
)

// Strategy 交易策略
// 每个时间步在当步价格写入价格表之后被调用一次，
// 通过 exchange.Service 下单，这是策略改变账本的唯一通路
type Strategy interface {
	Name() string
	Execute(ctx context.Context, ex exchange.Service, candle exchange.Candle) error
}
