package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/tezgate/tezgate/internal/orchestrator"
)

// RegisterSessionRoutes wires wallet session lifecycle endpoints.
func RegisterSessionRoutes(r fiber.Router, h *orchestrator.Handler, connectLimit fiber.Handler) {
    r.Post("/session/connect", connectLimit, h.Connect)
    r.Post("/session/disconnect", h.Disconnect)
    r.Get("/session", h.Session)
}
