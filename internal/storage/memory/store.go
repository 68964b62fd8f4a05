package memory

import (
	"context"
	"sort"
	"sync"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It is thread-safe even though the engine drives it sequentially, so a
// future concurrent caller does not change the contract.
type MemoryLedgerStore struct {
	mu       sync.Mutex
	accounts map[models.ClientID]models.Account
	deposits map[models.TxID]models.DepositRecord
}

// NewMemoryLedgerStore creates an empty in-memory store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[models.ClientID]models.Account),
		deposits: make(map[models.TxID]models.DepositRecord),
	}
}

// Account returns the stored account for client, or a fresh zero account if
// the client has never been seen. Accounts are created lazily: the zero
// account is not persisted until SaveAccount.
func (m *MemoryLedgerStore) Account(client models.ClientID) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if acct, ok := m.accounts[client]; ok {
		return acct, nil
	}
	return models.Account{Client: client}, nil
}

// SaveAccount stores the full account state under its client id.
func (m *MemoryLedgerStore) SaveAccount(ctx context.Context, acct models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[acct.Client] = acct
	return nil
}

// Deposit looks up the disputable-deposit record registered under tx.
func (m *MemoryLedgerStore) Deposit(tx models.TxID) (models.DepositRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dep, ok := m.deposits[tx]
	if !ok {
		return models.DepositRecord{}, interfaces.ErrDepositNotFound
	}
	return dep, nil
}

// SaveDeposit registers a disputable-deposit record under its tx id.
func (m *MemoryLedgerStore) SaveDeposit(ctx context.Context, dep models.DepositRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deposits[dep.Tx] = dep
	return nil
}

// SetDepositStatus updates the dispute status of a registered deposit.
func (m *MemoryLedgerStore) SetDepositStatus(ctx context.Context, tx models.TxID, status models.DepositStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dep, ok := m.deposits[tx]
	if !ok {
		return interfaces.ErrDepositNotFound
	}
	dep.Status = status
	m.deposits[tx] = dep
	return nil
}

// Accounts returns a copy of every stored account, ordered by client id so
// the final report is stable across runs.
func (m *MemoryLedgerStore) Accounts() ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]models.Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Client < accounts[j].Client
	})
	return accounts, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
