package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/PerterPon/ff/internal/service/market"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrInsufficientFunds   = errors.New("insufficient fiat funds")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Ledger 记录自由（未冻结）的法币余额和各符号持仓余额
// 被挂单或保证金占用的资金不在这里，由交易所自行记账
type Ledger struct {
	prices *market.Table

	mu       sync.RWMutex
	fiat     decimal.Decimal
	balances map[string]decimal.Decimal
}

func New(prices *market.Table) *Ledger {
	return &Ledger{
		prices:   prices,
		fiat:     decimal.Zero,
		balances: make(map[string]decimal.Decimal),
	}
}

func (l *Ledger) FiatBalance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fiat
}

func (l *Ledger) SetFiatBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeBalance, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.fiat = amount
	return nil
}

func (l *Ledger) AddFiatBalance(amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fiat = l.fiat.Add(amount)
}

func (l *Ledger) SubFiatBalance(amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fiat.LessThan(amount) {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientFunds, l.fiat, amount)
	}
	l.fiat = l.fiat.Sub(amount)
	return nil
}

// Balance 未持有的符号返回 0，不报错
func (l *Ledger) Balance(symbol string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[symbol]
}

func (l *Ledger) SetBalance(symbol string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s %s", ErrNegativeBalance, symbol, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[symbol] = amount
	return nil
}

func (l *Ledger) AddBalance(symbol string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[symbol] = l.balances[symbol].Add(amount)
}

func (l *Ledger) SubBalance(symbol string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balances[symbol]
	if current.LessThan(amount) {
		return fmt.Errorf("%w: %s have %s, want %s", ErrInsufficientBalance, symbol, current, amount)
	}
	l.balances[symbol] = current.Sub(amount)
	return nil
}

// Balances 返回持仓余额快照，修改返回值不影响内部状态
func (l *Ledger) Balances() map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[string]decimal.Decimal, len(l.balances))
	for symbol, amount := range l.balances {
		snapshot[symbol] = amount
	}
	return snapshot
}

// TotalBalance 法币 + 各持仓按当前价格估值 + 未实现盈亏
// 没有价格的符号按 0 计入，不中断整体计算
func (l *Ledger) TotalBalance(unrealizedPnl decimal.Decimal) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := l.fiat
	for symbol, amount := range l.balances {
		price, err := l.prices.Price(symbol)
		if errors.Is(err, market.ErrPriceNotFound) {
			continue
		}
		total = total.Add(amount.Mul(price))
	}
	return total.Add(unrealizedPnl)
}
