package models

import (
	"github.com/sheikh-saqib/payments-engine/internal/money"
)

// TxType identifies the nature of a transaction record.
type TxType string

const (
	TypeDeposit    TxType = "deposit"
	TypeWithdrawal TxType = "withdrawal"
	TypeDispute    TxType = "dispute"
	TypeResolve    TxType = "resolve"
	TypeChargeback TxType = "chargeback"
)

// ClientID uniquely identifies a client. It is known to fit a uint16.
type ClientID uint16

// TxID uniquely identifies a transaction. It is known to fit a uint32 and is
// assumed unique across the whole input.
type TxID uint32

// Transaction is one record of the input stream, immutable once constructed.
// Amount is meaningful only for deposits and withdrawals; dispute, resolve
// and chargeback reference a prior transaction by Tx and carry no amount.
type Transaction struct {
	Type   TxType
	Client ClientID
	Tx     TxID
	Amount money.Amount
}

// HasAmount reports whether this record type carries an amount column.
func (t TxType) HasAmount() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Valid reports whether the type is one of the five known record types.
func (t TxType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback:
		return true
	}
	return false
}
