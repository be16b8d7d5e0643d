// Package orchestrator drives transfer operations from user intent to a
// confirmed, ledger-reconciled result. It owns the single wallet session and
// delegates signing, balance reads and ledger writes to injected
// collaborators.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tezgate/tezgate/internal/balances"
	"github.com/tezgate/tezgate/internal/journal"
	"github.com/tezgate/tezgate/internal/ledgerapi"
	"github.com/tezgate/tezgate/internal/logging"
	"github.com/tezgate/tezgate/internal/notification"
	"github.com/tezgate/tezgate/internal/tezos"
)

// Ledger is the backend ledger capability consumed by the orchestrator.
// Amounts are display units; the backend holds withdrawal signing keys.
type Ledger interface {
	RecordDeposit(ctx context.Context, rec ledgerapi.DepositRecord) (string, error)
	Withdraw(ctx context.Context, asset tezos.Asset, toAddress string, amount float64) (string, error)
}

// Config carries the static transfer parameters.
type Config struct {
	// Network is the chain network permissions are scoped to.
	Network string
	// DepositAddress is the platform wallet deposits are sent to.
	DepositAddress string
	// AccountID identifies the platform account on deposit ledger records.
	AccountID string
}

// Deps aggregates the orchestrator's collaborators. Journal and Notifier are
// optional.
type Deps struct {
	Wallet   tezos.WalletSession
	Chain    tezos.ChainReader
	Ledger   Ledger
	Balances balances.Store
	Journal  journal.Repository
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Orchestrator coordinates one wallet session and at most one in-flight
// transfer at a time.
type Orchestrator struct {
	cfg      Config
	wallet   tezos.WalletSession
	chain    tezos.ChainReader
	ledger   Ledger
	balances balances.Store
	journal  journal.Repository
	notifier notification.Notifier
	logger   *slog.Logger

	mu          sync.Mutex
	session     Session
	busy        bool
	phase       Phase
	lastOutcome Phase
}

// New builds an orchestrator instance.
func New(cfg Config, deps Deps) *Orchestrator {
	store := deps.Balances
	if store == nil {
		store = balances.NewMemoryStore()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		cfg:      cfg,
		wallet:   deps.Wallet,
		chain:    deps.Chain,
		ledger:   deps.Ledger,
		balances: store,
		journal:  deps.Journal,
		notifier: deps.Notifier,
		logger:   logger,

		phase:       PhaseIdle,
		lastOutcome: PhaseIdle,
	}
}

// State returns a snapshot of the session and the current transfer phase.
func (o *Orchestrator) State() (Session, Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session, o.phase
}

// Connect requests wallet permissions scoped to the configured network and
// stores the granted address. Calling it while connected is a no-op.
func (o *Orchestrator) Connect(ctx context.Context) (Session, error) {
	o.mu.Lock()
	if o.session.Connected {
		session := o.session
		o.mu.Unlock()
		return session, nil
	}
	o.mu.Unlock()

	address, err := o.wallet.RequestPermissions(ctx, o.cfg.Network)
	if err != nil {
		if errors.Is(err, tezos.ErrPermissionDenied) {
			return Session{}, newError(KindPermissionDenied, "wallet permission request rejected", err)
		}
		return Session{}, newError(KindWalletSetupFailed, "failed to connect wallet", err)
	}

	o.mu.Lock()
	o.session = Session{Connected: true, Address: address}
	session := o.session
	o.mu.Unlock()

	o.logger.Info("wallet connected", "address", address, "network", o.cfg.Network)

	// Prime the balance cache; failures here are non-fatal.
	for _, asset := range tezos.Assets() {
		if _, err := o.RefreshBalance(ctx, asset); err != nil {
			o.logger.Warn("initial balance refresh failed", "asset", asset, "error", err)
		}
	}

	return session, nil
}

// Disconnect clears the wallet session and cached balances. If the wallet
// refuses to clear, the local session is kept as-is.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	o.mu.Lock()
	if !o.session.Connected {
		o.mu.Unlock()
		return newError(KindNotConnected, "no wallet connected", nil)
	}
	address := o.session.Address
	o.mu.Unlock()

	if err := o.wallet.ClearSession(ctx); err != nil {
		return newError(KindDisconnectFailed, "failed to clear wallet session", err)
	}

	o.mu.Lock()
	o.session = Session{}
	o.mu.Unlock()

	if err := o.balances.Clear(ctx, address); err != nil {
		o.logger.Warn("clear balance cache", "address", address, "error", err)
	}

	o.logger.Info("wallet disconnected", "address", address)
	return nil
}

// RefreshBalance re-queries the chain for the connected address and updates
// the cache. On failure the previous cached value is retained.
func (o *Orchestrator) RefreshBalance(ctx context.Context, asset tezos.Asset) (Balance, error) {
	o.mu.Lock()
	address := o.session.Address
	o.mu.Unlock()
	if address == "" {
		return Balance{}, newError(KindNotConnected, "no wallet connected", nil)
	}

	minimal, err := o.chain.BalanceOf(ctx, address, asset)
	if err != nil {
		return Balance{}, newError(KindBalanceQueryFailed, fmt.Sprintf("failed to fetch %s balance", asset), err)
	}

	if err := o.balances.Set(ctx, address, asset, minimal); err != nil {
		o.logger.Warn("cache balance", "address", address, "asset", asset, "error", err)
	}

	return Balance{Address: address, Asset: asset, Minimal: minimal, AsOf: time.Now().UTC()}, nil
}

// CachedBalance reads the cached balance for the connected address without
// touching the chain.
func (o *Orchestrator) CachedBalance(ctx context.Context, asset tezos.Asset) (Balance, bool) {
	o.mu.Lock()
	address := o.session.Address
	o.mu.Unlock()
	if address == "" {
		return Balance{}, false
	}
	minimal, ok, err := o.balances.Get(ctx, address, asset)
	if err != nil || !ok {
		return Balance{}, false
	}
	return Balance{Address: address, Asset: asset, Minimal: minimal, AsOf: time.Now().UTC()}, true
}

// Deposit converts the amount, guards it against the cached balance, submits
// a user-signed transfer to the platform deposit address, waits for on-chain
// confirmation and records the deposit with the ledger service.
func (o *Orchestrator) Deposit(ctx context.Context, amountText string) (Outcome, error) {
	address, oerr := o.beginTransfer()
	if oerr != nil {
		return Outcome{ErrorMessage: oerr.Error()}, oerr
	}
	defer o.endTransfer()

	minimal, err := tezos.ToMinimalUnits(amountText)
	if err != nil {
		return o.failTransfer(nil, newError(KindInvalidAmount, "enter a valid positive amount", err))
	}

	// Client-side guard only; the chain remains the authority and may still
	// reject the transfer.
	cached, ok, err := o.balances.Get(ctx, address, tezos.AssetTez)
	if err != nil {
		o.logger.Warn("balance cache read failed", "error", err)
		ok = false
	}
	if !ok {
		fresh, err := o.chain.BalanceOf(ctx, address, tezos.AssetTez)
		if err != nil {
			o.logger.Warn("balance lookup failed, skipping client-side guard", "error", err)
		} else {
			cached, ok = fresh, true
		}
	}
	if ok && minimal > cached {
		return o.failTransfer(nil, newError(KindInsufficientBalance, "insufficient balance", nil))
	}

	entry := o.newEntry(journal.DirectionDeposit, tezos.AssetTez, address, minimal)

	o.setPhase(PhaseAwaitingSignature)
	handle, err := o.wallet.Transfer(ctx, o.cfg.DepositAddress, minimal)
	if err != nil {
		return o.failTransfer(&entry, newError(KindChainSubmissionFailed, "transfer submission failed", err))
	}

	o.setPhase(PhaseAwaitingConfirmation)
	opRef, err := handle.Confirmation(ctx)
	if err != nil {
		entry.OperationReference = handle.Hash()
		return o.failTransfer(&entry, newError(KindChainConfirmationFailed, "transfer was not confirmed on-chain", err))
	}
	entry.OperationReference = opRef

	o.setPhase(PhaseReconciling)
	display, _ := tezos.ToDisplayUnits(minimal).Float64()
	if _, err := o.ledger.RecordDeposit(ctx, ledgerapi.DepositRecord{
		AccountID:   o.cfg.AccountID,
		FromAddress: address,
		ToAddress:   o.cfg.DepositAddress,
		Amount:      display,
		Currency:    tezos.AssetTez.Currency(),
		OpHash:      opRef,
	}); err != nil {
		// Funds already moved on-chain; the gap is surfaced, not compensated.
		return o.failTransfer(&entry, newError(KindLedgerReconciliationFailed, "deposit confirmed on-chain but not recorded by the ledger", err))
	}

	if _, err := o.RefreshBalance(ctx, tezos.AssetTez); err != nil {
		o.logger.Warn("post-deposit balance refresh failed", "error", err)
	}

	o.settleTransfer(entry)
	o.notify(ctx, notification.KindDepositSettled, address,
		fmt.Sprintf("Deposited %s tez, operation %s", tezos.ToDisplayUnits(minimal), opRef))

	return Outcome{Success: true, OperationReference: opRef}, nil
}

// Withdraw delegates a backend-custodied withdrawal of the given asset to the
// ledger service. The user never signs a withdrawal; only the backend does.
func (o *Orchestrator) Withdraw(ctx context.Context, amountText string, asset tezos.Asset) (Outcome, error) {
	address, oerr := o.beginTransfer()
	if oerr != nil {
		return Outcome{ErrorMessage: oerr.Error()}, oerr
	}
	defer o.endTransfer()

	minimal, err := tezos.ToMinimalUnits(amountText)
	if err != nil {
		return o.failTransfer(nil, newError(KindInvalidAmount, "enter a valid positive amount", err))
	}

	entry := o.newEntry(journal.DirectionWithdraw, asset, address, minimal)

	o.setPhase(PhaseReconciling)
	display, _ := tezos.ToDisplayUnits(minimal).Float64()
	opRef, err := o.ledger.Withdraw(ctx, asset, address, display)
	if err != nil {
		return o.failTransfer(&entry, newError(KindWithdrawalRejected, "withdrawal rejected by ledger service", err))
	}
	entry.OperationReference = opRef

	if _, err := o.RefreshBalance(ctx, asset); err != nil {
		o.logger.Warn("post-withdraw balance refresh failed", "asset", asset, "error", err)
	}

	o.settleTransfer(entry)
	o.notify(ctx, notification.KindWithdrawSettled, address,
		fmt.Sprintf("Withdrew %s %s, operation %s", tezos.ToDisplayUnits(minimal), asset, opRef))

	return Outcome{Success: true, OperationReference: opRef}, nil
}

// beginTransfer enforces the single in-flight transfer invariant and moves
// the instance to Validating.
func (o *Orchestrator) beginTransfer() (string, *Error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.session.Connected {
		return "", newError(KindNotConnected, "connect a wallet first", nil)
	}
	if o.busy {
		return "", newError(KindTransferInFlight, "another transfer is still in flight", nil)
	}
	o.busy = true
	o.phase = PhaseValidating
	return o.session.Address, nil
}

func (o *Orchestrator) endTransfer() {
	o.mu.Lock()
	o.busy = false
	o.phase = PhaseIdle
	o.mu.Unlock()
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.mu.Lock()
	o.phase = phase
	o.mu.Unlock()
	o.logger.Debug("transfer phase", "phase", phase)
}

// setTerminalPhase records Settled/Failed both as the current phase and as
// the last outcome, so it stays observable after endTransfer resets the
// phase to Idle.
func (o *Orchestrator) setTerminalPhase(phase Phase) {
	o.mu.Lock()
	o.phase = phase
	o.lastOutcome = phase
	o.mu.Unlock()
	o.logger.Debug("transfer phase", "phase", phase)
}

// LastOutcome reports how the most recent transfer instance ended. It is
// PhaseIdle until a transfer has reached Settled or Failed.
func (o *Orchestrator) LastOutcome() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastOutcome
}

func (o *Orchestrator) newEntry(direction string, asset tezos.Asset, address string, minimal int64) journal.Entry {
	return journal.Entry{
		ID:            uuid.NewString(),
		Direction:     direction,
		Asset:         asset,
		Address:       address,
		AmountMinimal: minimal,
		CreatedAt:     time.Now().UTC(),
	}
}

// failTransfer marks the instance failed and journals the entry when the
// transfer progressed past validation. Validation failures have no side
// effects and are not journaled.
func (o *Orchestrator) failTransfer(entry *journal.Entry, oerr *Error) (Outcome, error) {
	o.setTerminalPhase(PhaseFailed)
	if entry != nil {
		entry.Status = journal.StatusFailed
		entry.Detail = oerr.Error()
		o.record(*entry)
	}
	o.logger.Error("transfer failed", "kind", oerr.Kind, "error", oerr)
	return Outcome{ErrorMessage: oerr.Error()}, oerr
}

func (o *Orchestrator) settleTransfer(entry journal.Entry) {
	o.setTerminalPhase(PhaseSettled)
	entry.Status = journal.StatusSettled
	o.record(entry)
}

func (o *Orchestrator) record(entry journal.Entry) {
	if o.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.journal.Record(ctx, entry); err != nil {
		o.logger.Warn("journal record failed", "id", entry.ID, "error", err)
	}
}

func (o *Orchestrator) notify(ctx context.Context, kind, address, body string) {
	if o.notifier == nil {
		return
	}
	_ = o.notifier.Send(ctx, notification.Message{Kind: kind, Address: address, Body: body})
}
