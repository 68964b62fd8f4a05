package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// WriteAccounts renders the final account snapshot as CSV: one row per
// client with amounts at the fixed fractional scale.
func WriteAccounts(w io.Writer, accounts []models.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}

	for _, acct := range accounts {
		total, err := acct.Total()
		if err != nil {
			return err
		}
		row := []string{
			strconv.FormatUint(uint64(acct.Client), 10),
			acct.Available.String(),
			acct.Held.String(),
			total.String(),
			strconv.FormatBool(acct.Locked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
