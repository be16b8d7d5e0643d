package orchestrator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tezgate/tezgate/internal/tezos"
)

// Phase tracks where the current transfer instance is in its lifecycle.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseValidating           Phase = "validating"
	PhaseAwaitingSignature    Phase = "awaiting_signature"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseReconciling          Phase = "reconciling"
	PhaseSettled              Phase = "settled"
	PhaseFailed               Phase = "failed"
)

// Session is the wallet connection state. There is exactly one per
// orchestrator instance.
type Session struct {
	Connected bool
	Address   string
}

// Balance is a point-in-time view of an address balance.
type Balance struct {
	Address string
	Asset   tezos.Asset
	Minimal int64
	AsOf    time.Time
}

// Display converts the balance to display units.
func (b Balance) Display() decimal.Decimal {
	return tezos.ToDisplayUnits(b.Minimal)
}

// Outcome is the terminal result of one transfer instance.
type Outcome struct {
	Success            bool
	OperationReference string
	ErrorMessage       string
}
