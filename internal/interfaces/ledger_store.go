package interfaces

import (
	"context"
	"errors"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// ErrDepositNotFound is returned by LedgerStore.Deposit when no deposit has
// been registered under the given transaction id.
var ErrDepositNotFound = errors.New("deposit not found")

// LedgerStore is the single source of truth for account and deposit state.
// The transaction processor never holds its own copies across calls; every
// read and mutation goes through this contract, and each operation completes
// (or fails) before the processor moves to the next record.
//
// A backend may be in memory or externally persisted. Whatever the backend,
// no operation may leave an account observable in a state violating
// total == available + held.
type LedgerStore interface {
	// Account returns the account for the given client, creating a zero
	// account lazily if the client has never been seen.
	Account(client models.ClientID) (models.Account, error)

	// SaveAccount persists the full account state in one operation.
	SaveAccount(ctx context.Context, acct models.Account) error

	// Deposit looks up the disputable-deposit record registered under tx.
	// Returns ErrDepositNotFound if no deposit was registered.
	Deposit(tx models.TxID) (models.DepositRecord, error)

	// SaveDeposit registers a disputable-deposit record under its tx id.
	SaveDeposit(ctx context.Context, dep models.DepositRecord) error

	// SetDepositStatus moves a registered deposit through its dispute
	// lifecycle. Returns ErrDepositNotFound if no deposit was registered.
	SetDepositStatus(ctx context.Context, tx models.TxID, status models.DepositStatus) error

	// Accounts enumerates every known account in a stable order.
	Accounts() ([]models.Account, error)
}
