package bridge

import "errors"

// ErrInvalidOrder indicates a submission that failed validation before any
// state was touched: zero size, empty symbol, unknown order type, or a price
// field inconsistent with the order type.
var ErrInvalidOrder = errors.New("invalid order")

// ErrOrderNotFound indicates a cancel for an id the registry has never
// issued.
var ErrOrderNotFound = errors.New("order not found")
