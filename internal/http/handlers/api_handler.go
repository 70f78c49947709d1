package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stockledger/internal/domain"
	applog "stockledger/internal/log"
	"stockledger/internal/services"
	"stockledger/internal/validate"
)

// APIHandler serves read-only JSON views of the ledger.
type APIHandler struct {
	Ledger *services.LedgerService
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GET /api/v1/itens?filtro=
func (h *APIHandler) Items(c *fiber.Ctx) error {
	items, err := h.Ledger.ListItems(c.UserContext(), validate.Filter(c.Query("filtro")))
	if err != nil {
		applog.Error(c, "api.items.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "could not load items"})
	}
	return c.JSON(fiber.Map{"total": len(items), "items": items})
}

// GET /api/v1/itens/:id
func (h *APIHandler) Item(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id must be a positive integer"})
	}
	it, err := h.Ledger.GetItem(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "item not found"})
	}
	if err != nil {
		applog.Error(c, "api.item.fail", err, map[string]any{"item_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "could not load item"})
	}
	return c.JSON(it)
}

// GET /api/v1/movimentacoes
func (h *APIHandler) Movements(c *fiber.Ctx) error {
	movs, err := h.Ledger.ListMovements(c.UserContext())
	if err != nil {
		applog.Error(c, "api.movements.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "could not load movements"})
	}
	return c.JSON(fiber.Map{"total": len(movs), "movements": movs})
}
