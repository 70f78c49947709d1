package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"stockledger/internal/domain"
	applog "stockledger/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Token the CSRF middleware put into Locals; fall back to the cookie it set.
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok
	return c.Render(tmpl, data)
}

func renderError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("erro", fiber.Map{"Message": msg})
}

// reject answers a form that failed validation.
func reject(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return renderError(c, fiber.StatusBadRequest, msg)
}

// ledgerFailure maps a ledger error to its page. Storage failures go to the
// app ErrorHandler so details stay in the log.
func ledgerFailure(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return reject(c, verr.Field, verr.Msg)
	case errors.Is(err, domain.ErrNotFound):
		applog.Security(c, action, withReason(fields, "not_found"))
		return renderError(c, fiber.StatusNotFound, "Item não encontrado.")
	case errors.Is(err, domain.ErrInsufficientStock):
		applog.Security(c, action, withReason(fields, "insufficient_stock"))
		return renderError(c, fiber.StatusConflict, "Quantidade insuficiente em estoque.")
	}
	applog.Error(c, action, err, fields)
	return err
}

func withReason(fields map[string]any, reason string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["reason"] = reason
	return out
}

// formValue returns the first non-empty value among the given field names.
func formValue(c *fiber.Ctx, names ...string) string {
	for _, n := range names {
		if v := c.FormValue(n); v != "" {
			return v
		}
	}
	return ""
}
