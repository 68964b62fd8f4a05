package models

import (
	"github.com/sheikh-saqib/payments-engine/internal/money"
)

// DepositStatus tracks where a deposit stands in the dispute lifecycle.
type DepositStatus string

const (
	// DepositFunded is the initial state: the deposit is credited and open
	// to dispute.
	DepositFunded DepositStatus = "funded"
	// DepositDisputed means the funds are held pending resolve or chargeback.
	DepositDisputed DepositStatus = "disputed"
	// DepositReversed is terminal: the deposit was charged back. A reversed
	// deposit can never be disputed, resolved or charged back again.
	DepositReversed DepositStatus = "reversed"
)

// DepositRecord is the bookkeeping entry kept for every applied deposit so
// that later dispute, resolve and chargeback records can reference it.
// Records are created at deposit time and never deleted; chargeback moves
// them to DepositReversed rather than removing them.
type DepositRecord struct {
	Tx     TxID
	Client ClientID
	Amount money.Amount
	Status DepositStatus
}
