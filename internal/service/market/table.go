package market

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrPriceNotFound = errors.New("price not found")

// Table 当前价格表，按交易对符号索引
// 每个回测实例持有自己的 Table，由回放循环在每个时间步写入
type Table struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewTable() *Table {
	return &Table{
		prices: make(map[string]decimal.Decimal),
	}
}

// Set 无条件覆盖该符号的当前价格
func (t *Table) Set(symbol string, price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[symbol] = price
}

// Price 返回该符号的当前价格
// 只有从未写入过的符号才返回 ErrPriceNotFound，价格为 0 是合法值
func (t *Table) Price(symbol string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	price, exists := t.prices[symbol]
	if !exists {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceNotFound, symbol)
	}
	return price, nil
}

// Symbols 返回所有已记录价格的符号
func (t *Table) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	symbols := make([]string, 0, len(t.prices))
	for s := range t.prices {
		symbols = append(symbols, s)
	}
	return symbols
}
