package journal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the transfer journal over HTTP.
type Handler struct {
	repo Repository
}

// NewHandler builds a journal HTTP handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type entryResponse struct {
	ID                 string `json:"id"`
	Direction          string `json:"direction"`
	Asset              string `json:"asset"`
	Address            string `json:"address"`
	AmountMinimal      int64  `json:"amount_minimal"`
	OperationReference string `json:"operation_reference,omitempty"`
	Status             string `json:"status"`
	Detail             string `json:"detail,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// List returns recent transfer outcomes for an address, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	address := c.Params("address")
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	entries, err := h.repo.ListByAddress(c.UserContext(), address, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:                 e.ID,
			Direction:          e.Direction,
			Asset:              string(e.Asset),
			Address:            e.Address,
			AmountMinimal:      e.AmountMinimal,
			OperationReference: e.OperationReference,
			Status:             e.Status,
			Detail:             e.Detail,
			CreatedAt:          e.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"address": address, "transfers": out})
}
