package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// OpenShort 开空或加空
// 保证金 = 名义金额/杠杆，手续费按名义金额收取，两者在开仓时一并冻结
// 同一符号已有持仓时合并：数量累加，入场价按名义金额加权平均，保证金累加，
// 记录的杠杆和创建时间保留首次开仓的值（本次调用的杠杆只参与保证金计算）
func (e *Exchange) OpenShort(ctx context.Context, symbol exchange.Symbol, amount decimal.Decimal, leverage int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: open short %s", exchange.ErrInvalidAmount, amount)
	}
	if leverage < 1 {
		return fmt.Errorf("%w: %d", exchange.ErrInvalidLeverage, leverage)
	}

	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	notional := price.Mul(amount)
	margin := notional.Div(decimal.NewFromInt(int64(leverage)))
	fee := notional.Mul(e.feeRates.ShortOpen)

	if e.ledger.FiatBalance().LessThan(margin.Add(fee)) {
		return fmt.Errorf("%w: %s need %s, have %s",
			exchange.ErrInsufficientMargin, symbol.ToString(), margin.Add(fee), e.ledger.FiatBalance())
	}
	if err := e.ledger.SubFiatBalance(margin.Add(fee)); err != nil {
		return err
	}

	now := e.now()
	key := symbol.ToString()

	if pos, exists := e.shorts[key]; exists {
		// 加权平均入场价：(旧入场价×旧数量 + 现价×新数量) / 总数量
		totalQuantity := pos.Quantity.Add(amount)
		totalNotional := pos.EntryPrice.Mul(pos.Quantity).Add(notional)
		pos.EntryPrice = totalNotional.Div(totalQuantity)
		pos.Quantity = totalQuantity
		pos.Margin = pos.Margin.Add(margin)
		pos.UpdatedAt = now
	} else {
		e.shorts[key] = &exchange.ShortPosition{
			Symbol:     symbol,
			Quantity:   amount,
			EntryPrice: price,
			Leverage:   leverage,
			Margin:     margin,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	e.tradeCount++
	e.totalFees = e.totalFees.Add(fee)
	return nil
}

// CloseShort 平空，返回本次平仓的已实现盈亏
// 保证金 + 已实现盈亏 - 手续费 回到自由法币，持仓删除
func (e *Exchange) CloseShort(ctx context.Context, symbol exchange.Symbol) (decimal.Decimal, error) {
	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return decimal.Zero, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pos, exists := e.shorts[symbol.ToString()]
	if !exists {
		return decimal.Zero, fmt.Errorf("%w: %s", exchange.ErrShortNotFound, symbol.ToString())
	}

	realized, _ := e.settleShort(pos, price)
	return realized, nil
}

// settleShort 按给定价格结算并删除空头持仓，调用方必须持有写锁
func (e *Exchange) settleShort(pos *exchange.ShortPosition, price decimal.Decimal) (realized, fee decimal.Decimal) {
	realized = pos.UnrealizedPnl(price)
	fee = price.Mul(pos.Quantity).Mul(e.feeRates.ShortClose)

	// 深度亏损时返还额可能为负，自由余额随之下降
	e.ledger.AddFiatBalance(pos.Margin.Add(realized).Sub(fee))
	delete(e.shorts, pos.Symbol.ToString())

	e.tradeCount++
	e.totalFees = e.totalFees.Add(fee)
	return realized, fee
}

// ShortPosition 查询某符号的空头持仓，无副作用
func (e *Exchange) ShortPosition(ctx context.Context, symbol exchange.Symbol) (exchange.ShortPosition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pos, exists := e.shorts[symbol.ToString()]
	if !exists {
		return exchange.ShortPosition{}, false
	}
	return *pos, true
}

// AllShortPositions 全部空头持仓快照，按符号排序
func (e *Exchange) AllShortPositions(ctx context.Context) []exchange.ShortPosition {
	e.mu.RLock()
	defer e.mu.RUnlock()

	positions := make([]exchange.ShortPosition, 0, len(e.shorts))
	for _, pos := range e.shorts {
		positions = append(positions, *pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol.ToString() < positions[j].Symbol.ToString()
	})
	return positions
}

// UnrealizedPnl (入场价 - 当前价) × 数量，无持仓或无价格时为 0
func (e *Exchange) UnrealizedPnl(ctx context.Context, symbol exchange.Symbol) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pos, exists := e.shorts[symbol.ToString()]
	if !exists {
		return decimal.Zero
	}
	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return decimal.Zero
	}
	return pos.UnrealizedPnl(price)
}

// TotalUnrealizedPnl 所有空头持仓的未实现盈亏之和
func (e *Exchange) TotalUnrealizedPnl(ctx context.Context) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := decimal.Zero
	for _, pos := range e.shorts {
		price, err := e.prices.Price(pos.Symbol.ToString())
		if err != nil {
			continue
		}
		total = total.Add(pos.UnrealizedPnl(price))
	}
	return total
}

// CheckLiquidation 按当前价检查强平条件
// 权益/仓位价值 低于维持保证金率时按平仓逻辑强制结算，
// 返回的事件仅供记录，账本效果在返回前已经生效
func (e *Exchange) CheckLiquidation(ctx context.Context, symbol exchange.Symbol) (*exchange.Liquidation, error) {
	price, err := e.prices.Price(symbol.ToString())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkLiquidationAt(symbol, price), nil
}

// checkLiquidationAt 调用方必须持有写锁
func (e *Exchange) checkLiquidationAt(symbol exchange.Symbol, price decimal.Decimal) *exchange.Liquidation {
	pos, exists := e.shorts[symbol.ToString()]
	if !exists {
		return nil
	}

	positionValue := price.Mul(pos.Quantity)
	if !positionValue.IsPositive() {
		return nil
	}

	equity := pos.Margin.Add(pos.UnrealizedPnl(price))
	if equity.Div(positionValue).GreaterThanOrEqual(MaintenanceMarginRate) {
		return nil
	}

	realized, fee := e.settleShort(pos, price)
	return &exchange.Liquidation{
		Symbol:      symbol,
		Price:       price,
		RealizedPnl: realized,
		Fee:         fee,
		Time:        e.now(),
	}
}
