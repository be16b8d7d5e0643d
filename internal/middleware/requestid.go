package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a stable identifier so log lines for one
// transfer can be correlated across the gateway and the ledger service.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Locals(requestIDHeader, reqID)
		// Echo the id back so callers can reference it in support requests.
		c.Set(requestIDHeader, reqID)

		return c.Next()
	}
}
