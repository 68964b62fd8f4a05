package events

import (
	"time"
)

// TransactionApplied is published after a record has been applied to the
// ledger.
type TransactionApplied struct {
	RunID      string    `json:"run_id"`
	Type       string    `json:"type"`
	Client     uint16    `json:"client"`
	Tx         uint32    `json:"tx"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
