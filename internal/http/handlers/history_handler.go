package handlers

import (
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gofiber/fiber/v2"

	applog "stockledger/internal/log"
	"stockledger/internal/services"
)

type HistoryHandler struct {
	Ledger *services.LedgerService
}

// GET /historico
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	movs, err := h.Ledger.ListMovements(c.UserContext())
	if err != nil {
		applog.Error(c, "history.list.fail", err, nil)
		return err
	}
	return render(c, "historico", fiber.Map{"Movimentacoes": movs})
}

type movementCSV struct {
	ID       int64  `csv:"id"`
	Date     string `csv:"data"`
	ItemID   int64  `csv:"item_id"`
	Item     string `csv:"item"`
	Lot      string `csv:"lote"`
	Kind     string `csv:"tipo"`
	Quantity int    `csv:"quantidade"`
	Actor    string `csv:"usuario"`
}

// GET /historico.csv
func (h *HistoryHandler) ExportCSV(c *fiber.Ctx) error {
	movs, err := h.Ledger.ListMovements(c.UserContext())
	if err != nil {
		applog.Error(c, "history.export.fail", err, nil)
		return err
	}
	rows := make([]movementCSV, 0, len(movs))
	for _, m := range movs {
		rows = append(rows, movementCSV{
			ID:       m.ID,
			Date:     m.Timestamp.UTC().Format(time.RFC3339),
			ItemID:   m.ItemID,
			Item:     m.ItemName,
			Lot:      m.ItemLot,
			Kind:     string(m.Kind),
			Quantity: m.Quantity,
			Actor:    m.Actor,
		})
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		applog.Error(c, "history.export.fail", err, nil)
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="historico.csv"`)
	return c.Send(out)
}
