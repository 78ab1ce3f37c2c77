package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/PerterPon/ff/internal/service/ledger"
	"github.com/PerterPon/ff/internal/service/market"
	"github.com/shopspring/decimal"
)

// 编译时检查接口实现
var _ exchange.Service = (*Exchange)(nil)

// MaintenanceMarginRate 维持保证金率
// 空头持仓的 权益/仓位价值 低于该比例时强制平仓
var MaintenanceMarginRate = decimal.NewFromFloat(0.05)

// pendingOrder 挂单加上插入序号，保证成交扫描顺序确定
type pendingOrder struct {
	exchange.Order
	seq int64
}

// Exchange 模拟撮合与记账引擎
// 回测期间账本的唯一变更入口，持有挂单和空头持仓
type Exchange struct {
	prices *market.Table
	ledger *ledger.Ledger

	mu       sync.RWMutex
	feeRates exchange.FeeRates
	clock    time.Time

	pendingOrders map[exchange.OrderId]*pendingOrder
	nextOrderId   int64

	shorts map[string]*exchange.ShortPosition // key: symbol

	// 报表计数
	tradeCount int64
	totalFees  decimal.Decimal
}

func NewExchange(prices *market.Table, initialBalance decimal.Decimal) *Exchange {
	ex := &Exchange{
		prices:        prices,
		ledger:        ledger.New(prices),
		feeRates:      exchange.DefaultFeeRates(),
		pendingOrders: make(map[exchange.OrderId]*pendingOrder),
		nextOrderId:   1,
		shorts:        make(map[string]*exchange.ShortPosition),
		totalFees:     decimal.Zero,
	}
	if initialBalance.IsPositive() {
		ex.ledger.AddFiatBalance(initialBalance)
	}
	return ex
}

// SetTime 设置回放时钟，订单和持仓的时间戳都取自这里
func (e *Exchange) SetTime(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = t
}

func (e *Exchange) now() time.Time {
	if e.clock.IsZero() {
		return time.Now()
	}
	return e.clock
}

// SpotBuy 现货市价买入
// 失败不产生任何副作用
func (e *Exchange) SpotBuy(ctx context.Context, symbol exchange.Symbol, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: spot buy %s", exchange.ErrInvalidAmount, amount)
	}

	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cost := price.Mul(amount)
	fee := cost.Mul(e.feeRates.SpotBuy)

	if err := e.ledger.SubFiatBalance(cost.Add(fee)); err != nil {
		return fmt.Errorf("spot buy %s: %w", symbol.ToString(), err)
	}
	e.ledger.AddBalance(symbol.ToString(), amount)

	e.tradeCount++
	e.totalFees = e.totalFees.Add(fee)
	return nil
}

// SpotSell 现货市价卖出
func (e *Exchange) SpotSell(ctx context.Context, symbol exchange.Symbol, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: spot sell %s", exchange.ErrInvalidAmount, amount)
	}

	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SubBalance(symbol.ToString(), amount); err != nil {
		return fmt.Errorf("spot sell %s: %w", symbol.ToString(), err)
	}

	revenue := price.Mul(amount)
	fee := revenue.Mul(e.feeRates.SpotSell)
	e.ledger.AddFiatBalance(revenue.Sub(fee))

	e.tradeCount++
	e.totalFees = e.totalFees.Add(fee)
	return nil
}

func (e *Exchange) FeeRates() exchange.FeeRates {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feeRates
}

// SetFeeRates 部分更新费率，出现负值则整批拒绝
func (e *Exchange) SetFeeRates(update exchange.FeeRateUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.feeRates = update.Apply(e.feeRates)
	return nil
}

func (e *Exchange) FiatBalance() decimal.Decimal {
	return e.ledger.FiatBalance()
}

func (e *Exchange) Balance(symbol exchange.Symbol) decimal.Decimal {
	return e.ledger.Balance(symbol.ToString())
}

// TradeCount 已执行的交易笔数（现货、挂单成交、开平空各算一笔）
func (e *Exchange) TradeCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tradeCount
}

// TotalFees 累计支付的手续费
func (e *Exchange) TotalFees() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalFees
}

// TotalAssetValue 当前净值：自由法币 + 持仓估值 + 挂单占用 + 空头权益
// 买单按下单时冻结的总额原样计入，卖单按冻结数量乘当前价计入，
// 空头按 保证金+未实现盈亏 计入，没有价格的符号跳过不报错
// 只读，不改变任何状态
func (e *Exchange) TotalAssetValue() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := e.ledger.TotalBalance(decimal.Zero)

	for _, order := range e.pendingOrders {
		if order.Side == exchange.SideBuy {
			total = total.Add(order.Frozen)
			continue
		}
		price, err := e.prices.Price(order.Symbol.ToString())
		if err != nil {
			continue
		}
		total = total.Add(order.Quantity.Mul(price))
	}

	for _, pos := range e.shorts {
		total = total.Add(pos.Margin)
		price, err := e.prices.Price(pos.Symbol.ToString())
		if err != nil {
			continue
		}
		total = total.Add(pos.UnrealizedPnl(price))
	}

	return total
}
