package market

import "errors"

// Error taxonomy shared by every component. Callers test with errors.Is;
// returned errors wrap exactly one of these.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrPersistence          = errors.New("persistence failure")
	ErrSchedulerTick        = errors.New("scheduler tick failure")
)
