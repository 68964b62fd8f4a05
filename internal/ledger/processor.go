package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/models/events"
)

// Source yields transaction records in input order. Next returns io.EOF when
// the stream is exhausted.
type Source interface {
	Next() (models.Transaction, error)
}

// Processor applies transaction records to the ledger, one at a time, in
// exactly the order received. Ordering is load-bearing: dispute, resolve and
// chargeback only make sense relative to a specific prior deposit.
//
// The processor holds no durable state of its own; everything lives behind
// the LedgerStore contract.
type Processor struct {
	store         interfaces.LedgerStore
	logger        *zap.Logger
	publisher     interfaces.EventPublisher
	appliedTopic  string
	rejectedTopic string
	runID         string
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the diagnostic logger. Rejections are logged at debug
// level; without a logger they are silent.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPublisher enables outcome events on the given topics.
func WithPublisher(pub interfaces.EventPublisher, appliedTopic, rejectedTopic string) Option {
	return func(p *Processor) {
		p.publisher = pub
		p.appliedTopic = appliedTopic
		p.rejectedTopic = rejectedTopic
	}
}

// WithRunID tags outcome events with a run identifier.
func WithRunID(runID string) Option {
	return func(p *Processor) {
		p.runID = runID
	}
}

// NewProcessor creates a Processor backed by the given store.
func NewProcessor(store interfaces.LedgerStore, opts ...Option) *Processor {
	p := &Processor{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes the source to exhaustion. Rejected records are reported and
// skipped; only fatal conditions (overflow, an invalidated assumption, or a
// store/source failure) end the run early.
func (p *Processor) Run(ctx context.Context, src Source) error {
	for {
		tx, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading transaction: %w", err)
		}

		if err := p.Apply(ctx, tx); err != nil {
			var rej *Rejection
			if errors.As(err, &rej) {
				p.reportRejected(tx, rej)
				continue
			}
			return err
		}
		p.reportApplied(tx)
	}
}

// Apply applies a single record to the ledger. It returns nil when the
// record was applied, a *Rejection when it was rejected, and any other error
// on a fatal condition.
func (p *Processor) Apply(ctx context.Context, tx models.Transaction) error {
	switch tx.Type {
	case models.TypeDeposit:
		return p.deposit(ctx, tx)
	case models.TypeWithdrawal:
		return p.withdraw(ctx, tx)
	case models.TypeDispute:
		return p.dispute(ctx, tx)
	case models.TypeResolve:
		return p.resolve(ctx, tx)
	case models.TypeChargeback:
		return p.chargeback(ctx, tx)
	default:
		return fmt.Errorf("unknown transaction type %q", tx.Type)
	}
}

// deposit credits the client and registers the transaction as disputable.
// Deposits are permitted even on locked accounts: a lock blocks withdrawals
// only.
func (p *Processor) deposit(ctx context.Context, tx models.Transaction) error {
	if tx.Amount.IsNegative() {
		return p.reject(tx, ErrNegativeAmount)
	}

	if _, err := p.store.Deposit(tx.Tx); err == nil {
		return p.reject(tx, ErrDuplicateTransaction)
	} else if !errors.Is(err, interfaces.ErrDepositNotFound) {
		return fmt.Errorf("looking up deposit %d: %w", tx.Tx, err)
	}

	acct, err := p.store.Account(tx.Client)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", tx.Client, err)
	}

	acct.Available, err = acct.Available.Add(tx.Amount)
	if err != nil {
		return fmt.Errorf("crediting client %d with tx %d: %w", tx.Client, tx.Tx, err)
	}

	dep := models.DepositRecord{
		Tx:     tx.Tx,
		Client: tx.Client,
		Amount: tx.Amount,
		Status: models.DepositFunded,
	}
	if err := p.store.SaveDeposit(ctx, dep); err != nil {
		return fmt.Errorf("registering deposit %d: %w", tx.Tx, err)
	}
	if err := p.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("saving account %d: %w", tx.Client, err)
	}
	return nil
}

// withdraw debits the client's available funds. Withdrawals are never
// registered for dispute.
func (p *Processor) withdraw(ctx context.Context, tx models.Transaction) error {
	if tx.Amount.IsNegative() {
		return p.reject(tx, ErrNegativeAmount)
	}

	acct, err := p.store.Account(tx.Client)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", tx.Client, err)
	}

	if acct.Locked {
		return p.reject(tx, ErrAccountLocked)
	}
	if tx.Amount.GreaterThan(acct.Available) {
		return p.reject(tx, ErrInsufficientFunds)
	}

	acct.Available, err = acct.Available.Sub(tx.Amount)
	if err != nil {
		return fmt.Errorf("debiting client %d with tx %d: %w", tx.Client, tx.Tx, err)
	}

	if err := p.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("saving account %d: %w", tx.Client, err)
	}
	return nil
}

// dispute moves a deposit's funds from available to held.
func (p *Processor) dispute(ctx context.Context, tx models.Transaction) error {
	dep, err := p.lookupDeposit(tx)
	if err != nil {
		return err
	}
	if dep.Status != models.DepositFunded {
		return p.reject(tx, ErrAlreadyDisputed)
	}

	acct, err := p.store.Account(dep.Client)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", dep.Client, err)
	}

	available, err := acct.Available.Sub(dep.Amount)
	if err != nil {
		return fmt.Errorf("holding funds for tx %d: %w", tx.Tx, err)
	}
	if available.IsNegative() {
		return fmt.Errorf("disputing tx %d for client %d: %w", tx.Tx, dep.Client, ErrAvailableUnderflow)
	}
	held, err := acct.Held.Add(dep.Amount)
	if err != nil {
		return fmt.Errorf("holding funds for tx %d: %w", tx.Tx, err)
	}
	acct.Available, acct.Held = available, held

	if err := p.store.SetDepositStatus(ctx, tx.Tx, models.DepositDisputed); err != nil {
		return fmt.Errorf("marking deposit %d disputed: %w", tx.Tx, err)
	}
	if err := p.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("saving account %d: %w", dep.Client, err)
	}
	return nil
}

// resolve releases a disputed deposit's funds back to available.
func (p *Processor) resolve(ctx context.Context, tx models.Transaction) error {
	dep, err := p.lookupDeposit(tx)
	if err != nil {
		return err
	}
	if dep.Status != models.DepositDisputed {
		return p.reject(tx, ErrNotDisputed)
	}

	acct, err := p.store.Account(dep.Client)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", dep.Client, err)
	}

	held, err := acct.Held.Sub(dep.Amount)
	if err != nil {
		return fmt.Errorf("releasing funds for tx %d: %w", tx.Tx, err)
	}
	available, err := acct.Available.Add(dep.Amount)
	if err != nil {
		return fmt.Errorf("releasing funds for tx %d: %w", tx.Tx, err)
	}
	acct.Available, acct.Held = available, held

	if err := p.store.SetDepositStatus(ctx, tx.Tx, models.DepositFunded); err != nil {
		return fmt.Errorf("marking deposit %d resolved: %w", tx.Tx, err)
	}
	if err := p.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("saving account %d: %w", dep.Client, err)
	}
	return nil
}

// chargeback removes a disputed deposit's funds permanently and locks the
// account. The deposit record stays in the store as reversed, so a repeat
// chargeback (or a fresh dispute) on the same tx is rejected rather than
// double-applied.
func (p *Processor) chargeback(ctx context.Context, tx models.Transaction) error {
	dep, err := p.lookupDeposit(tx)
	if err != nil {
		return err
	}
	if dep.Status != models.DepositDisputed {
		return p.reject(tx, ErrNotDisputed)
	}

	acct, err := p.store.Account(dep.Client)
	if err != nil {
		return fmt.Errorf("loading account %d: %w", dep.Client, err)
	}

	acct.Held, err = acct.Held.Sub(dep.Amount)
	if err != nil {
		return fmt.Errorf("charging back tx %d: %w", tx.Tx, err)
	}
	acct.Locked = true

	if err := p.store.SetDepositStatus(ctx, tx.Tx, models.DepositReversed); err != nil {
		return fmt.Errorf("marking deposit %d reversed: %w", tx.Tx, err)
	}
	if err := p.store.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("saving account %d: %w", dep.Client, err)
	}
	return nil
}

// lookupDeposit fetches the referenced deposit for a dispute, resolve or
// chargeback and checks it belongs to the stated client.
func (p *Processor) lookupDeposit(tx models.Transaction) (models.DepositRecord, error) {
	dep, err := p.store.Deposit(tx.Tx)
	if errors.Is(err, interfaces.ErrDepositNotFound) {
		return models.DepositRecord{}, p.reject(tx, ErrUnknownDeposit)
	}
	if err != nil {
		return models.DepositRecord{}, fmt.Errorf("looking up deposit %d: %w", tx.Tx, err)
	}
	if dep.Client != tx.Client {
		return models.DepositRecord{}, p.reject(tx, ErrWrongClient)
	}
	return dep, nil
}

func (p *Processor) reject(tx models.Transaction, reason error) *Rejection {
	return &Rejection{Type: tx.Type, Client: tx.Client, Tx: tx.Tx, Reason: reason}
}

func (p *Processor) reportApplied(tx models.Transaction) {
	if p.publisher == nil {
		return
	}
	event := events.TransactionApplied{
		RunID:      p.runID,
		Type:       string(tx.Type),
		Client:     uint16(tx.Client),
		Tx:         uint32(tx.Tx),
		OccurredAt: time.Now().UTC(),
	}
	if tx.Type.HasAmount() {
		event.Amount = tx.Amount.String()
	}
	if err := p.publisher.Publish(p.appliedTopic, event); err != nil {
		p.logger.Warn("publishing applied event",
			zap.Uint32("tx", uint32(tx.Tx)), zap.Error(err))
	}
}

func (p *Processor) reportRejected(tx models.Transaction, rej *Rejection) {
	p.logger.Debug("transaction rejected",
		zap.String("type", string(tx.Type)),
		zap.Uint16("client", uint16(tx.Client)),
		zap.Uint32("tx", uint32(tx.Tx)),
		zap.String("reason", rej.Reason.Error()),
	)

	if p.publisher == nil {
		return
	}
	event := events.TransactionRejected{
		RunID:      p.runID,
		Type:       string(tx.Type),
		Client:     uint16(tx.Client),
		Tx:         uint32(tx.Tx),
		Reason:     rej.Reason.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := p.publisher.Publish(p.rejectedTopic, event); err != nil {
		p.logger.Warn("publishing rejected event",
			zap.Uint32("tx", uint32(tx.Tx)), zap.Error(err))
	}
}
