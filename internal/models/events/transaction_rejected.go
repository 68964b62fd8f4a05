package events

import (
	"time"
)

// TransactionRejected is published when a record is rejected. Rejections are
// a normal per-record outcome, not a failure of the run.
type TransactionRejected struct {
	RunID      string    `json:"run_id"`
	Type       string    `json:"type"`
	Client     uint16    `json:"client"`
	Tx         uint32    `json:"tx"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
