// Package journal keeps an audit trail of transfer outcomes. Entries are
// written best-effort after a transfer settles or fails; the journal is not
// part of the transfer decision path.
package journal

import (
	"context"
	"time"

	"github.com/tezgate/tezgate/internal/tezos"
)

const (
	// DirectionDeposit marks a user-signed transfer into the platform.
	DirectionDeposit = "deposit"
	// DirectionWithdraw marks a backend-custodied transfer to the user.
	DirectionWithdraw = "withdraw"

	// StatusSettled indicates the transfer completed and was reconciled.
	StatusSettled = "settled"
	// StatusFailed indicates the transfer aborted at some step.
	StatusFailed = "failed"
)

// Entry records the outcome of one transfer instance.
type Entry struct {
	ID                 string
	Direction          string
	Asset              tezos.Asset
	Address            string
	AmountMinimal      int64
	OperationReference string
	Status             string
	Detail             string
	CreatedAt          time.Time
}

// Repository persists journal entries.
type Repository interface {
	Record(ctx context.Context, entry Entry) error
	ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error)
}
