package orchestrator

import "errors"

// Kind classifies orchestrator failures so callers can pattern-match instead
// of parsing messages.
type Kind string

const (
	// KindWalletSetupFailed covers wallet session creation and pairing errors.
	KindWalletSetupFailed Kind = "wallet_setup_failed"
	// KindPermissionDenied indicates the user rejected the permission request.
	KindPermissionDenied Kind = "permission_denied"
	// KindDisconnectFailed indicates the wallet session could not be cleared.
	KindDisconnectFailed Kind = "disconnect_failed"
	// KindNotConnected indicates an operation that requires a connected wallet.
	KindNotConnected Kind = "not_connected"
	// KindInvalidAmount indicates the amount did not parse to a positive value.
	KindInvalidAmount Kind = "invalid_amount"
	// KindInsufficientBalance indicates the cached balance cannot cover the amount.
	KindInsufficientBalance Kind = "insufficient_balance"
	// KindChainSubmissionFailed indicates the signed transfer was rejected.
	KindChainSubmissionFailed Kind = "chain_submission_failed"
	// KindChainConfirmationFailed indicates the operation never confirmed.
	KindChainConfirmationFailed Kind = "chain_confirmation_failed"
	// KindLedgerReconciliationFailed indicates the chain operation succeeded
	// but the backend failed to record it.
	KindLedgerReconciliationFailed Kind = "ledger_reconciliation_failed"
	// KindWithdrawalRejected indicates the backend refused or failed to
	// execute a custodied withdrawal.
	KindWithdrawalRejected Kind = "withdrawal_rejected"
	// KindBalanceQueryFailed indicates a balance refresh failed; the previous
	// cached value is retained.
	KindBalanceQueryFailed Kind = "balance_query_failed"
	// KindTransferInFlight indicates another transfer is still running.
	KindTransferInFlight Kind = "transfer_in_flight"
)

// Error is the typed failure returned by every orchestrator operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error chain; it returns the empty
// Kind for errors that did not originate here.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
