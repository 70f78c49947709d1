package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "stockledger/internal/log"
)

func TestEventsCarryRequestContext(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })

	app := fiber.New()
	app.Use(requestid.New())
	app.Post("/remover", func(c *fiber.Ctx) error {
		applog.Audit(c, "stock.remove", map[string]any{"item_id": 7, "qty": 2})
		applog.Error(c, "stock.remove.fail", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusSeeOther)
	})
	resp, err := app.Test(httptest.NewRequest("POST", "/remover", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var audit map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &audit))
	assert.Equal(t, "audit", audit["kind"])
	assert.Equal(t, "info", audit["level"])
	assert.Equal(t, "stock.remove", audit["action"])
	assert.Equal(t, "POST", audit["method"])
	assert.Equal(t, "/remover", audit["path"])
	assert.Equal(t, resp.Header.Get("X-Request-ID"), audit["req_id"])
	assert.Equal(t, map[string]any{"item_id": float64(7), "qty": float64(2)}, audit["fields"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "error", failure["kind"])
	assert.Equal(t, "error", failure["level"])
	assert.Equal(t, "boom", failure["error"])
	assert.NotContains(t, failure, "fields")
}

func TestSecurityWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })

	applog.Security(nil, "csrf.fail", nil)

	var e map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e))
	assert.Equal(t, "warn", e["level"])
	assert.Equal(t, "security", e["kind"])
	assert.NotContains(t, e, "path")
}

func TestSetupWritesRotatingFile(t *testing.T) {
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })
	path := filepath.Join(t.TempDir(), "stockledger.log")

	l := applog.Setup(applog.Options{Env: "production", Level: "warn", File: path})
	l.Info().Msg("dropped below level")
	l.Warn().Str("action", "rate.hit").Msg("")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped below level")
	assert.Contains(t, string(data), `"action":"rate.hit"`)
}
