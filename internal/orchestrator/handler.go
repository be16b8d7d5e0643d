package orchestrator

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tezgate/tezgate/internal/tezos"
)

// Handler exposes the orchestrator over HTTP for the web UI.
type Handler struct {
	service *Orchestrator
}

// NewHandler builds the transfer HTTP handler.
func NewHandler(service *Orchestrator) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
}

type outcomeResponse struct {
	Success            bool   `json:"success"`
	OperationReference string `json:"operation_reference,omitempty"`
	Error              string `json:"error,omitempty"`
}

// Connect pairs the wallet and returns the session state.
func (h *Handler) Connect(c *fiber.Ctx) error {
	session, err := h.service.Connect(c.UserContext())
	if err != nil {
		return kindError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"connected": session.Connected,
		"address":   session.Address,
	})
}

// Disconnect clears the wallet session.
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	if err := h.service.Disconnect(c.UserContext()); err != nil {
		return kindError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"connected": false})
}

// Session reports the session state, the current transfer phase and the
// cached balances.
func (h *Handler) Session(c *fiber.Ctx) error {
	session, phase := h.service.State()

	cached := fiber.Map{}
	for _, asset := range tezos.Assets() {
		if balance, ok := h.service.CachedBalance(c.UserContext(), asset); ok {
			cached[string(asset)] = balance.Display()
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"connected":    session.Connected,
		"address":      session.Address,
		"phase":        phase,
		"last_outcome": h.service.LastOutcome(),
		"balances":     cached,
	})
}

// Balance refreshes the requested asset balance from the chain.
func (h *Handler) Balance(c *fiber.Ctx) error {
	asset, err := tezos.ParseAsset(c.Params("asset"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	balance, err := h.service.RefreshBalance(c.UserContext(), asset)
	if err != nil {
		return kindError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":   balance.Address,
		"asset":     balance.Asset,
		"balance":   balance.Display(),
		"timestamp": balance.AsOf,
	})
}

// Deposit runs the user-signed deposit workflow.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.service.Deposit(c.UserContext(), req.Amount)
	if err != nil {
		return c.Status(statusForKind(KindOf(err))).JSON(toOutcomeResponse(outcome))
	}
	return c.Status(http.StatusOK).JSON(toOutcomeResponse(outcome))
}

// Withdraw runs the backend-custodied withdrawal workflow.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset := tezos.AssetTez
	if req.Asset != "" {
		parsed, err := tezos.ParseAsset(req.Asset)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		asset = parsed
	}

	outcome, err := h.service.Withdraw(c.UserContext(), req.Amount, asset)
	if err != nil {
		return c.Status(statusForKind(KindOf(err))).JSON(toOutcomeResponse(outcome))
	}
	return c.Status(http.StatusOK).JSON(toOutcomeResponse(outcome))
}

func toOutcomeResponse(outcome Outcome) outcomeResponse {
	return outcomeResponse{
		Success:            outcome.Success,
		OperationReference: outcome.OperationReference,
		Error:              outcome.ErrorMessage,
	}
}

func kindError(err error) error {
	return fiber.NewError(statusForKind(KindOf(err)), err.Error())
}

func statusForKind(kind Kind) int {
	switch kind {
	case KindInvalidAmount, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotConnected, KindTransferInFlight:
		return http.StatusConflict
	case KindBalanceQueryFailed:
		return http.StatusServiceUnavailable
	case KindWalletSetupFailed, KindDisconnectFailed,
		KindChainSubmissionFailed, KindChainConfirmationFailed,
		KindLedgerReconciliationFailed, KindWithdrawalRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
