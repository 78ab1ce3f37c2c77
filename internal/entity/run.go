package entity

import (
	"time"
)

// BacktestRun 一次回测的落库记录, 金额字段统一存字符串避免精度丢失
type BacktestRun struct {
	Id             int64  `gorm:"primaryKey;autoIncrement"`
	Strategy       string `gorm:"index"`
	BaseSymbol     string `gorm:"index"`
	QuoteSymbol    string `gorm:"index"`
	Interval       string
	StartTime      time.Time
	EndTime        time.Time
	InitialBalance string
	FinalBalance   string
	ReturnRate     string
	MaxDrawdown    string
	TradeCount     int64
	FillCount      int64
	Liquidations   int64
	TotalFees      string
	CandleCount    int64
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}
