package orders

import "errors"

var (
	// ErrInvalidRange is returned when a filter's To is not after From.
	ErrInvalidRange = errors.New("orders: to must be after from")
)
