package exchange

import "errors"

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidLeverage = errors.New("leverage must be at least 1")
	ErrInvalidFeeRate  = errors.New("fee rate cannot be negative")

	ErrInsufficientMargin = errors.New("insufficient margin")

	ErrOrderNotFound = errors.New("order not found")
	ErrShortNotFound = errors.New("short position does not exist")
)
