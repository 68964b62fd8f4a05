package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/money"
)

// Reader decodes the input stream: rows of `type, client, tx, amount` with a
// header line, whitespace-tolerant. Amount is required for deposits and
// withdrawals and must be empty otherwise.
type Reader struct {
	csv        *csv.Reader
	skipHeader bool
}

// NewReader wraps r in a transaction decoder.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// dispute/resolve/chargeback rows may omit the trailing amount column
	cr.FieldsPerRecord = -1
	return &Reader{
		csv:        cr,
		skipHeader: true,
	}
}

// Next returns the next transaction in input order, or io.EOF at end of
// stream. Any malformed row is an error; the caller treats it as fatal.
func (r *Reader) Next() (models.Transaction, error) {
	if r.skipHeader {
		r.skipHeader = false
		if _, err := r.csv.Read(); err != nil {
			return models.Transaction{}, err
		}
	}

	record, err := r.csv.Read()
	if err != nil {
		return models.Transaction{}, err
	}
	if len(record) < 3 {
		return models.Transaction{}, fmt.Errorf("row has %d columns, want at least 3", len(record))
	}

	txType := models.TxType(strings.TrimSpace(record[0]))
	if !txType.Valid() {
		return models.Transaction{}, fmt.Errorf("unknown transaction type %q", record[0])
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("client id %q: %w", record[1], err)
	}
	txID, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("tx id %q: %w", record[2], err)
	}

	tx := models.Transaction{
		Type:   txType,
		Client: models.ClientID(client),
		Tx:     models.TxID(txID),
	}

	var amountField string
	if len(record) > 3 {
		amountField = strings.TrimSpace(record[3])
	}

	if txType.HasAmount() {
		if amountField == "" {
			return models.Transaction{}, fmt.Errorf("%s tx %d: missing amount", txType, txID)
		}
		tx.Amount, err = money.Parse(amountField)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("%s tx %d amount %q: %w", txType, txID, amountField, err)
		}
	} else if amountField != "" {
		return models.Transaction{}, fmt.Errorf("%s tx %d: unexpected amount %q", txType, txID, amountField)
	}

	return tx, nil
}
