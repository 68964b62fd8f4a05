package models

import (
	"github.com/sheikh-saqib/payments-engine/internal/money"
)

// Account is the running state for one client.
//
// Total is never stored: it is always computed from available + held, so a
// partially written account can never be observed violating the identity
// total == available + held.
type Account struct {
	Client    ClientID
	Available money.Amount
	Held      money.Amount
	Locked    bool
}

// Total returns available + held, the client's full accounted balance.
func (a Account) Total() (money.Amount, error) {
	return a.Available.Add(a.Held)
}
