package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/tezgate/tezgate/internal/journal"
    "github.com/tezgate/tezgate/internal/middleware"
    "github.com/tezgate/tezgate/internal/orchestrator"
)

// RegisterTransferRoutes wires balance and transfer endpoints. Transfer
// submissions get idempotent replay protection when Redis is available.
func RegisterTransferRoutes(r fiber.Router, h *orchestrator.Handler, j *journal.Handler, d Deps) {
    r.Get("/balance/:asset", h.Balance)
    r.Get("/transfers/:address", j.List)

    if d.Cache != nil {
        idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
        r.Post("/deposit", idem, h.Deposit)
        r.Post("/withdraw", idem, h.Withdraw)
        return
    }
    r.Post("/deposit", h.Deposit)
    r.Post("/withdraw", h.Withdraw)
}
