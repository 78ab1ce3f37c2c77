package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// PlaceBuyOrder 挂买单
// 下单时立即冻结 名义+手续费，冻结总额原样记录在订单上
func (e *Exchange) PlaceBuyOrder(ctx context.Context, symbol exchange.Symbol, amount, price decimal.Decimal) (exchange.OrderId, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: buy order amount %s", exchange.ErrInvalidAmount, amount)
	}
	if !price.IsPositive() {
		return "", fmt.Errorf("%w: buy order price %s", exchange.ErrInvalidPrice, price)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cost := price.Mul(amount)
	fee := cost.Mul(e.feeRates.LimitBuy)
	frozen := cost.Add(fee)

	if err := e.ledger.SubFiatBalance(frozen); err != nil {
		return "", fmt.Errorf("place buy order %s: %w", symbol.ToString(), err)
	}

	order := e.addOrder(exchange.Order{
		Symbol:   symbol,
		Side:     exchange.SideBuy,
		Price:    price,
		Quantity: amount,
		Frozen:   frozen,
	})
	return order.Id, nil
}

// PlaceSellOrder 挂卖单
// 下单时冻结对应数量的持仓，手续费在成交时才收取
func (e *Exchange) PlaceSellOrder(ctx context.Context, symbol exchange.Symbol, amount, price decimal.Decimal) (exchange.OrderId, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: sell order amount %s", exchange.ErrInvalidAmount, amount)
	}
	if !price.IsPositive() {
		return "", fmt.Errorf("%w: sell order price %s", exchange.ErrInvalidPrice, price)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SubBalance(symbol.ToString(), amount); err != nil {
		return "", fmt.Errorf("place sell order %s: %w", symbol.ToString(), err)
	}

	order := e.addOrder(exchange.Order{
		Symbol:   symbol,
		Side:     exchange.SideSell,
		Price:    price,
		Quantity: amount,
		Frozen:   decimal.Zero,
	})
	return order.Id, nil
}

// addOrder 分配单调递增的订单号并登记挂单，调用方必须持有写锁
func (e *Exchange) addOrder(order exchange.Order) *pendingOrder {
	seq := e.nextOrderId
	e.nextOrderId++

	order.Id = exchange.OrderId(fmt.Sprintf("order_%d", seq))
	order.CreatedAt = e.now()

	p := &pendingOrder{Order: order, seq: seq}
	e.pendingOrders[order.Id] = p
	return p
}

// CancelOrder 撤单，退还下单时冻结的资金或持仓
func (e *Exchange) CancelOrder(ctx context.Context, id exchange.OrderId) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, exists := e.pendingOrders[id]
	if !exists {
		return fmt.Errorf("%w: %s", exchange.ErrOrderNotFound, id)
	}

	// 先移除再退款，保证冻结只释放一次
	delete(e.pendingOrders, id)

	if order.Side == exchange.SideBuy {
		e.ledger.AddFiatBalance(order.Frozen)
	} else {
		e.ledger.AddBalance(order.Symbol.ToString(), order.Quantity)
	}
	return nil
}

// PendingOrders 挂单快照，按下单顺序排列
func (e *Exchange) PendingOrders(ctx context.Context) []exchange.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pendingSnapshot()
}

func (e *Exchange) pendingSnapshot() []exchange.Order {
	snapshot := make([]*pendingOrder, 0, len(e.pendingOrders))
	for _, order := range e.pendingOrders {
		snapshot = append(snapshot, order)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].seq < snapshot[j].seq
	})

	orders := make([]exchange.Order, len(snapshot))
	for i, order := range snapshot {
		orders[i] = order.Order
	}
	return orders
}

// OnPriceUpdate 处理一次价格更新：先检查强平，再扫描该符号的挂单
// 买单在 新价 <= 限价 时成交，卖单在 新价 >= 限价 时成交，按限价结算
// 先收集命中的订单再统一结算，避免边遍历边删除
func (e *Exchange) OnPriceUpdate(ctx context.Context, symbol exchange.Symbol, newPrice decimal.Decimal) (exchange.PriceUpdateResult, error) {
	result := exchange.PriceUpdateResult{}

	e.mu.Lock()
	defer e.mu.Unlock()

	result.Liquidation = e.checkLiquidationAt(symbol, newPrice)

	var matched []*pendingOrder
	for _, order := range e.pendingOrders {
		if order.Symbol != symbol {
			continue
		}
		if e.orderFillable(order, newPrice) {
			matched = append(matched, order)
		}
	}
	// 成交顺序按下单顺序，保证可复现
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq < matched[j].seq
	})

	for _, order := range matched {
		delete(e.pendingOrders, order.Id)
		fill := e.settleOrder(order)
		result.Fills = append(result.Fills, fill)
	}

	return result, nil
}

func (e *Exchange) orderFillable(order *pendingOrder, newPrice decimal.Decimal) bool {
	if order.Side == exchange.SideBuy {
		return newPrice.LessThanOrEqual(order.Price)
	}
	return newPrice.GreaterThanOrEqual(order.Price)
}

// settleOrder 结算一笔已从挂单表移除的订单，调用方必须持有写锁
func (e *Exchange) settleOrder(order *pendingOrder) exchange.OrderFill {
	var fee decimal.Decimal

	if order.Side == exchange.SideBuy {
		// 资金在下单时已冻结，这里只交付数量，冻结额与名义额的差即手续费
		e.ledger.AddBalance(order.Symbol.ToString(), order.Quantity)
		fee = order.Frozen.Sub(order.Price.Mul(order.Quantity))
	} else {
		// 按限价结算，成交时才收卖出手续费
		revenue := order.Price.Mul(order.Quantity)
		fee = revenue.Mul(e.feeRates.LimitSell)
		e.ledger.AddFiatBalance(revenue.Sub(fee))
	}

	e.tradeCount++
	e.totalFees = e.totalFees.Add(fee)

	return exchange.OrderFill{Order: order.Order, Fee: fee}
}
