package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/money"
)

// PostgresLedgerStore is a postgres-backed implementation of
// interfaces.LedgerStore. Rows are namespaced by a run id so one database
// can hold the state of many runs side by side.
//
// Amounts are stored as NUMERIC and scanned through decimal.Decimal, never
// through a float.
type PostgresLedgerStore struct {
	db    *sql.DB
	runID string
}

// NewPostgresLedgerStore creates a store writing under the given run id.
func NewPostgresLedgerStore(db *sql.DB, runID string) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db:    db,
		runID: runID,
	}
}

// CreateSchema creates the backing tables if they do not exist.
func (p *PostgresLedgerStore) CreateSchema(ctx context.Context) error {
	const query = `
	CREATE TABLE IF NOT EXISTS accounts (
		run_id    TEXT        NOT NULL,
		client_id INTEGER     NOT NULL,
		available NUMERIC     NOT NULL,
		held      NUMERIC     NOT NULL,
		locked    BOOLEAN     NOT NULL,
		PRIMARY KEY (run_id, client_id)
	);
	CREATE TABLE IF NOT EXISTS deposits (
		run_id    TEXT        NOT NULL,
		tx_id     BIGINT      NOT NULL,
		client_id INTEGER     NOT NULL,
		amount    NUMERIC     NOT NULL,
		status    TEXT        NOT NULL,
		PRIMARY KEY (run_id, tx_id)
	)`

	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *PostgresLedgerStore) Account(client models.ClientID) (models.Account, error) {
	const query = `SELECT available, held, locked FROM accounts
	WHERE run_id = $1 AND client_id = $2`

	var available, held decimal.Decimal
	var locked bool
	err := p.db.QueryRow(query, p.runID, int64(client)).Scan(&available, &held, &locked)

	if err == sql.ErrNoRows {
		return models.Account{Client: client}, nil
	}
	if err != nil {
		return models.Account{}, err
	}

	return scanAccount(client, available, held, locked)
}

func (p *PostgresLedgerStore) SaveAccount(ctx context.Context, acct models.Account) error {
	const query = `INSERT INTO accounts (run_id, client_id, available, held, locked)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (run_id, client_id)
	DO UPDATE SET available = EXCLUDED.available, held = EXCLUDED.held, locked = EXCLUDED.locked`

	_, err := p.db.ExecContext(ctx, query,
		p.runID, int64(acct.Client), acct.Available.Decimal(), acct.Held.Decimal(), acct.Locked)
	return err
}

func (p *PostgresLedgerStore) Deposit(tx models.TxID) (models.DepositRecord, error) {
	const query = `SELECT client_id, amount, status FROM deposits
	WHERE run_id = $1 AND tx_id = $2`

	var clientID int64
	var amount decimal.Decimal
	var status string
	err := p.db.QueryRow(query, p.runID, int64(tx)).Scan(&clientID, &amount, &status)

	if err == sql.ErrNoRows {
		return models.DepositRecord{}, interfaces.ErrDepositNotFound
	}
	if err != nil {
		return models.DepositRecord{}, err
	}

	parsed, err := money.FromDecimal(amount)
	if err != nil {
		return models.DepositRecord{}, fmt.Errorf("deposit %d amount: %w", tx, err)
	}

	return models.DepositRecord{
		Tx:     tx,
		Client: models.ClientID(clientID),
		Amount: parsed,
		Status: models.DepositStatus(status),
	}, nil
}

func (p *PostgresLedgerStore) SaveDeposit(ctx context.Context, dep models.DepositRecord) error {
	const query = `INSERT INTO deposits (run_id, tx_id, client_id, amount, status)
	VALUES ($1,$2,$3,$4,$5)`

	_, err := p.db.ExecContext(ctx, query,
		p.runID, int64(dep.Tx), int64(dep.Client), dep.Amount.Decimal(), string(dep.Status))
	return err
}

func (p *PostgresLedgerStore) SetDepositStatus(ctx context.Context, tx models.TxID, status models.DepositStatus) error {
	const query = `UPDATE deposits SET status = $3
	WHERE run_id = $1 AND tx_id = $2`

	res, err := p.db.ExecContext(ctx, query, p.runID, int64(tx), string(status))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrDepositNotFound
	}
	return nil
}

func (p *PostgresLedgerStore) Accounts() ([]models.Account, error) {
	const query = `SELECT client_id, available, held, locked FROM accounts
	WHERE run_id = $1 ORDER BY client_id`

	rows, err := p.db.Query(query, p.runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var clientID int64
		var available, held decimal.Decimal
		var locked bool
		if err := rows.Scan(&clientID, &available, &held, &locked); err != nil {
			return nil, err
		}

		acct, err := scanAccount(models.ClientID(clientID), available, held, locked)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(client models.ClientID, available, held decimal.Decimal, locked bool) (models.Account, error) {
	availableAmt, err := money.FromDecimal(available)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %d available: %w", client, err)
	}
	heldAmt, err := money.FromDecimal(held)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %d held: %w", client, err)
	}
	return models.Account{
		Client:    client,
		Available: availableAmt,
		Held:      heldAmt,
		Locked:    locked,
	}, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
