package ledger_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/payments-engine/internal/ledger"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/money"
	"github.com/sheikh-saqib/payments-engine/internal/storage/memory"
)

func amount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func deposit(t *testing.T, client models.ClientID, tx models.TxID, amt string) models.Transaction {
	t.Helper()
	return models.Transaction{Type: models.TypeDeposit, Client: client, Tx: tx, Amount: amount(t, amt)}
}

func withdrawal(t *testing.T, client models.ClientID, tx models.TxID, amt string) models.Transaction {
	t.Helper()
	return models.Transaction{Type: models.TypeWithdrawal, Client: client, Tx: tx, Amount: amount(t, amt)}
}

func dispute(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Type: models.TypeDispute, Client: client, Tx: tx}
}

func resolve(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Type: models.TypeResolve, Client: client, Tx: tx}
}

func chargeback(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Type: models.TypeChargeback, Client: client, Tx: tx}
}

// apply runs records through the processor, requiring each to be applied.
func apply(t *testing.T, p *ledger.Processor, txs ...models.Transaction) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, p.Apply(context.Background(), tx))
	}
}

// requireRejected asserts that err is a per-record rejection with the given
// reason rather than a fatal error.
func requireRejected(t *testing.T, err error, reason error) {
	t.Helper()
	var rej *ledger.Rejection
	require.ErrorAs(t, err, &rej)
	require.ErrorIs(t, err, reason)
}

func requireAccount(t *testing.T, store *memory.MemoryLedgerStore, client models.ClientID, available, held string, locked bool) {
	t.Helper()
	acct, err := store.Account(client)
	require.NoError(t, err)

	assert.Equal(t, amount(t, available), acct.Available, "available")
	assert.Equal(t, amount(t, held), acct.Held, "held")
	assert.Equal(t, locked, acct.Locked, "locked")

	total, err := acct.Total()
	require.NoError(t, err)
	wantTotal, err := acct.Available.Add(acct.Held)
	require.NoError(t, err)
	assert.Equal(t, wantTotal, total, "total identity")
}

func TestDepositThenWithdrawal(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		withdrawal(t, 1, 2, "3.0"),
	)

	requireAccount(t, store, 1, "2.0", "0", false)
}

func TestDisputeHoldsFunds(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
	)

	requireAccount(t, store, 1, "0", "5.0", false)
}

func TestResolveReleasesFunds(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		resolve(1, 1),
	)

	requireAccount(t, store, 1, "5.0", "0", false)
}

func TestChargebackRemovesFundsAndLocks(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		chargeback(1, 1),
	)

	requireAccount(t, store, 1, "0", "0", true)

	err := p.Apply(context.Background(), withdrawal(t, 1, 3, "0.01"))
	requireRejected(t, err, ledger.ErrAccountLocked)
}

func TestLockedAccountStillAcceptsDeposits(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		chargeback(1, 1),
		deposit(t, 1, 2, "2.5"),
	)

	requireAccount(t, store, 1, "2.5", "0", true)
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p, deposit(t, 1, 1, "5.0"))

	err := p.Apply(context.Background(), withdrawal(t, 1, 2, "5.0001"))
	requireRejected(t, err, ledger.ErrInsufficientFunds)

	requireAccount(t, store, 1, "5.0", "0", false)
}

func TestDisputeBeforeDepositRejected(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	err := p.Apply(context.Background(), dispute(1, 1))
	requireRejected(t, err, ledger.ErrUnknownDeposit)
}

func TestDisputeWrongClientRejected(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p, deposit(t, 1, 1, "5.0"))

	err := p.Apply(context.Background(), dispute(2, 1))
	requireRejected(t, err, ledger.ErrWrongClient)

	requireAccount(t, store, 1, "5.0", "0", false)
}

func TestOnlyDepositsAreDisputable(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		withdrawal(t, 1, 2, "3.0"),
	)

	// withdrawals are never registered, so disputing one is an unknown tx
	err := p.Apply(context.Background(), dispute(1, 2))
	requireRejected(t, err, ledger.ErrUnknownDeposit)
}

func TestDoubleDisputeRejected(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
	)

	err := p.Apply(context.Background(), dispute(1, 1))
	requireRejected(t, err, ledger.ErrAlreadyDisputed)

	requireAccount(t, store, 1, "0", "5.0", false)
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		resolve(1, 1),
	)

	err := p.Apply(context.Background(), resolve(1, 1))
	requireRejected(t, err, ledger.ErrNotDisputed)

	requireAccount(t, store, 1, "5.0", "0", false)
}

func TestChargebackIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		chargeback(1, 1),
	)

	err := p.Apply(context.Background(), chargeback(1, 1))
	requireRejected(t, err, ledger.ErrNotDisputed)

	requireAccount(t, store, 1, "0", "0", true)
}

func TestChargedBackDepositCannotBeRedisputed(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		dispute(1, 1),
		chargeback(1, 1),
	)

	err := p.Apply(context.Background(), dispute(1, 1))
	requireRejected(t, err, ledger.ErrAlreadyDisputed)

	err = p.Apply(context.Background(), resolve(1, 1))
	requireRejected(t, err, ledger.ErrNotDisputed)

	requireAccount(t, store, 1, "0", "0", true)
}

func TestDuplicateDepositTxRejected(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p, deposit(t, 1, 1, "5.0"))

	err := p.Apply(context.Background(), deposit(t, 1, 1, "5.0"))
	requireRejected(t, err, ledger.ErrDuplicateTransaction)

	requireAccount(t, store, 1, "5.0", "0", false)
}

func TestNegativeAmountRejected(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	err := p.Apply(context.Background(), deposit(t, 1, 1, "-5.0"))
	requireRejected(t, err, ledger.ErrNegativeAmount)

	err = p.Apply(context.Background(), withdrawal(t, 1, 2, "-1.0"))
	requireRejected(t, err, ledger.ErrNegativeAmount)
}

func TestDepositOverflowIsFatal(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	huge := models.Transaction{
		Type: models.TypeDeposit, Client: 1, Tx: 1,
		Amount: money.FromUnits(math.MaxInt64),
	}
	require.NoError(t, p.Apply(context.Background(), huge))

	err := p.Apply(context.Background(), deposit(t, 1, 2, "0.0001"))
	require.Error(t, err)
	require.ErrorIs(t, err, money.ErrAmountOverflow)

	var rej *ledger.Rejection
	assert.False(t, errors.As(err, &rej), "overflow must be fatal, not a rejection")
}

func TestDisputeUnderflowIsFatal(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	apply(t, p,
		deposit(t, 1, 1, "5.0"),
		withdrawal(t, 1, 2, "3.0"),
	)

	// disputing the 5.0 deposit would drive available (2.0) negative
	err := p.Apply(context.Background(), dispute(1, 1))
	require.Error(t, err)
	require.ErrorIs(t, err, ledger.ErrAvailableUnderflow)

	var rej *ledger.Rejection
	assert.False(t, errors.As(err, &rej), "underflow must be fatal, not a rejection")
}

// sliceSource feeds a fixed slice of transactions to Processor.Run.
type sliceSource struct {
	txs []models.Transaction
	pos int
}

func (s *sliceSource) Next() (models.Transaction, error) {
	if s.pos >= len(s.txs) {
		return models.Transaction{}, io.EOF
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}

func TestRunContinuesPastRejections(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	src := &sliceSource{txs: []models.Transaction{
		deposit(t, 1, 1, "5.0"),
		withdrawal(t, 1, 2, "100.0"), // rejected: insufficient funds
		dispute(1, 99),               // rejected: unknown deposit
		withdrawal(t, 1, 3, "3.0"),
	}}

	require.NoError(t, p.Run(context.Background(), src))
	requireAccount(t, store, 1, "2.0", "0", false)
}

// recordingPublisher captures published outcome events.
type recordingPublisher struct {
	topics []string
}

func (r *recordingPublisher) Publish(topic string, event any) error {
	r.topics = append(r.topics, topic)
	return nil
}

func TestRunPublishesOutcomes(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	pub := &recordingPublisher{}
	p := ledger.NewProcessor(store,
		ledger.WithPublisher(pub, "applied", "rejected"),
		ledger.WithRunID("test-run"),
	)

	src := &sliceSource{txs: []models.Transaction{
		deposit(t, 1, 1, "5.0"),
		withdrawal(t, 1, 2, "100.0"),
	}}

	require.NoError(t, p.Run(context.Background(), src))
	assert.Equal(t, []string{"applied", "rejected"}, pub.topics)
}

func TestTotalIdentityHoldsAfterEveryRecord(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	p := ledger.NewProcessor(store)

	txs := []models.Transaction{
		deposit(t, 1, 1, "10.0"),
		deposit(t, 2, 2, "4.5"),
		withdrawal(t, 1, 3, "2.0"),
		dispute(1, 1),
		resolve(1, 1),
		dispute(2, 2),
		chargeback(2, 2),
		deposit(t, 2, 4, "1.0"),
	}

	for _, tx := range txs {
		if err := p.Apply(context.Background(), tx); err != nil {
			var rej *ledger.Rejection
			require.ErrorAs(t, err, &rej)
		}

		accounts, err := store.Accounts()
		require.NoError(t, err)
		for _, acct := range accounts {
			total, err := acct.Total()
			require.NoError(t, err)
			want, err := acct.Available.Add(acct.Held)
			require.NoError(t, err)
			assert.Equal(t, want, total)
			assert.False(t, acct.Available.IsNegative(), "available must stay non-negative")
		}
	}

	requireAccount(t, store, 1, "8.0", "0", false)
	requireAccount(t, store, 2, "1.0", "0", true)
}
