// Package economy defines the external balance provider the engine trades
// against, plus an in-memory provider for hosts without one.
package economy

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockmarket/market"
)

// Provider is the narrow contract of the host economy. Withdraw must not
// take a balance below zero; callers still check Balance first.
type Provider interface {
	Balance(player uuid.UUID) (decimal.Decimal, error)
	Deposit(player uuid.UUID, amount decimal.Decimal) error
	Withdraw(player uuid.UUID, amount decimal.Decimal) error
}

// Memory is a Provider backed by a map. Players that have never been seen
// start at the configured opening balance.
type Memory struct {
	mu       sync.Mutex
	opening  decimal.Decimal
	balances map[uuid.UUID]decimal.Decimal
}

func NewMemory(opening decimal.Decimal) *Memory {
	return &Memory{
		opening:  opening,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (m *Memory) balanceLocked(p uuid.UUID) decimal.Decimal {
	b, ok := m.balances[p]
	if !ok {
		return m.opening
	}
	return b
}

func (m *Memory) Balance(p uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(p), nil
}

func (m *Memory) Deposit(p uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: deposit must not be negative", market.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[p] = m.balanceLocked(p).Add(amount)
	return nil
}

func (m *Memory) Withdraw(p uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: withdrawal must not be negative", market.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.balanceLocked(p)
	if b.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, need %s", market.ErrInsufficientFunds, b, amount)
	}
	m.balances[p] = b.Sub(amount)
	return nil
}

// SetBalance overwrites a player's balance.
func (m *Memory) SetBalance(p uuid.UUID, amount decimal.Decimal) {
	m.mu.Lock()
	m.balances[p] = amount
	m.mu.Unlock()
}
