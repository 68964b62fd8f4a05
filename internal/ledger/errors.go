package ledger

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// Per-record rejection reasons. A rejected record is a normal outcome:
// processing continues with the next record.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountLocked        = errors.New("account locked")
	ErrUnknownDeposit       = errors.New("no such deposit")
	ErrWrongClient          = errors.New("deposit belongs to a different client")
	ErrAlreadyDisputed      = errors.New("deposit already disputed")
	ErrNotDisputed          = errors.New("deposit not under dispute")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrNegativeAmount       = errors.New("amount must not be negative")
)

// ErrAvailableUnderflow is fatal: a dispute tried to hold more than the
// client's available funds. The engine assumes this cannot happen on valid
// input, so when it does the run aborts instead of guessing at a policy.
var ErrAvailableUnderflow = errors.New("dispute would drive available balance negative")

// Rejection reports that one record was not applied and why. It wraps one of
// the sentinel reasons above, so callers can discriminate with errors.Is.
type Rejection struct {
	Type   models.TxType
	Client models.ClientID
	Tx     models.TxID
	Reason error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected (client=%d tx=%d): %v", r.Type, r.Client, r.Tx, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}
