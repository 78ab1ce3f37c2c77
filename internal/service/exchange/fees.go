package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeRates 六种操作各自的费率，按名义金额（价格×数量）收取
// 买入支付 名义+手续费，卖出得到 名义-手续费
// 开空支付 保证金+手续费，平空返还 保证金+已实现盈亏-手续费
type FeeRates struct {
	SpotBuy    decimal.Decimal
	SpotSell   decimal.Decimal
	LimitBuy   decimal.Decimal
	LimitSell  decimal.Decimal
	ShortOpen  decimal.Decimal
	ShortClose decimal.Decimal
}

// DefaultFeeRates 现货和空头 0.1%，挂单 0.2%
func DefaultFeeRates() FeeRates {
	return FeeRates{
		SpotBuy:    decimal.NewFromFloat(0.001),
		SpotSell:   decimal.NewFromFloat(0.001),
		LimitBuy:   decimal.NewFromFloat(0.002),
		LimitSell:  decimal.NewFromFloat(0.002),
		ShortOpen:  decimal.NewFromFloat(0.001),
		ShortClose: decimal.NewFromFloat(0.001),
	}
}

// FeeRateUpdate 部分更新，nil 字段保持不变
type FeeRateUpdate struct {
	SpotBuy    *decimal.Decimal
	SpotSell   *decimal.Decimal
	LimitBuy   *decimal.Decimal
	LimitSell  *decimal.Decimal
	ShortOpen  *decimal.Decimal
	ShortClose *decimal.Decimal
}

// Validate 任何一个给定的费率为负，整批更新都拒绝
func (u FeeRateUpdate) Validate() error {
	fields := map[string]*decimal.Decimal{
		"spotBuy":    u.SpotBuy,
		"spotSell":   u.SpotSell,
		"limitBuy":   u.LimitBuy,
		"limitSell":  u.LimitSell,
		"shortOpen":  u.ShortOpen,
		"shortClose": u.ShortClose,
	}
	for name, rate := range fields {
		if rate != nil && rate.IsNegative() {
			return fmt.Errorf("%w: %s=%s", ErrInvalidFeeRate, name, rate)
		}
	}
	return nil
}

// Apply 返回应用更新后的新费率表
func (u FeeRateUpdate) Apply(rates FeeRates) FeeRates {
	if u.SpotBuy != nil {
		rates.SpotBuy = *u.SpotBuy
	}
	if u.SpotSell != nil {
		rates.SpotSell = *u.SpotSell
	}
	if u.LimitBuy != nil {
		rates.LimitBuy = *u.LimitBuy
	}
	if u.LimitSell != nil {
		rates.LimitSell = *u.LimitSell
	}
	if u.ShortOpen != nil {
		rates.ShortOpen = *u.ShortOpen
	}
	if u.ShortClose != nil {
		rates.ShortClose = *u.ShortClose
	}
	return rates
}
