package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "stockledger/internal/log"
	"stockledger/internal/services"
	"stockledger/internal/validate"
)

type StockHandler struct {
	Ledger *services.LedgerService
}

// GET /?filtro=
func (h *StockHandler) Index(c *fiber.Ctx) error {
	filtro := validate.Filter(c.Query("filtro"))
	items, err := h.Ledger.ListItems(c.UserContext(), filtro)
	if err != nil {
		applog.Error(c, "stock.list.fail", err, nil)
		return err
	}
	return render(c, "index", fiber.Map{"Itens": items, "Filtro": filtro})
}

// POST /adicionar
func (h *StockHandler) Add(c *fiber.Ctx) error {
	name, ok := validate.Name(formValue(c, "nome", "name"))
	if !ok {
		return reject(c, "nome", "Informe o nome do item (até 100 caracteres).")
	}
	qty, ok := validate.Qty(formValue(c, "quantidade", "quantity"))
	if !ok {
		return reject(c, "quantidade", "A quantidade deve ser um número inteiro positivo.")
	}
	lot, ok := validate.Lot(formValue(c, "lote", "lot"))
	if !ok {
		return reject(c, "lote", "O lote deve ter até 50 caracteres.")
	}
	entry, ok := validate.Date(formValue(c, "data_entrada", "entryDate"))
	if !ok {
		return reject(c, "data_entrada", "Data de entrada inválida; use o formato AAAA-MM-DD.")
	}
	expiry, ok := validate.Date(formValue(c, "data_validade", "expiryDate"))
	if !ok {
		return reject(c, "data_validade", "Data de validade inválida; use o formato AAAA-MM-DD.")
	}

	item, mov, err := h.Ledger.AddStock(c.UserContext(), services.StockEntry{
		Name:       name,
		Quantity:   qty,
		Lot:        lot,
		EntryDate:  entry,
		ExpiryDate: expiry,
	})
	if err != nil {
		return ledgerFailure(c, "stock.add.fail", err, map[string]any{"name": name, "lot": lot, "qty": qty})
	}
	applog.Audit(c, "stock.add", map[string]any{
		"item_id":     item.ID,
		"movement_id": mov.ID,
		"qty":         qty,
		"on_hand":     item.Quantity,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}

// POST /remover
func (h *StockHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return reject(c, "id", "Item inválido.")
	}
	qty, ok := validate.Qty(formValue(c, "quantidade", "quantity"))
	if !ok {
		return reject(c, "quantidade", "A quantidade deve ser um número inteiro positivo.")
	}
	actor, ok := validate.Actor(formValue(c, "usuario", "actor"))
	if !ok {
		return reject(c, "usuario", "O nome do usuário deve ter até 100 caracteres.")
	}

	item, mov, err := h.Ledger.RemoveStock(c.UserContext(), id, qty, actor)
	if err != nil {
		return ledgerFailure(c, "stock.remove.fail", err, map[string]any{"item_id": id, "qty": qty})
	}
	applog.Audit(c, "stock.remove", map[string]any{
		"item_id":     item.ID,
		"movement_id": mov.ID,
		"qty":         qty,
		"actor":       actor,
		"on_hand":     item.Quantity,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}
