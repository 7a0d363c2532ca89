package core

import "errors"

// Sentinel errors for rejected operations. All are recoverable: a rejected
// tick or order leaves session state exactly as it was.
var (
	ErrUnknownInstrument    = errors.New("unknown_instrument")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientPosition = errors.New("insufficient_position")
	ErrMarketHalted         = errors.New("market_halted")
)
