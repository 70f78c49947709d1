package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"stockledger/internal/config"
	applog "stockledger/internal/log"
	"stockledger/web"
)

const genericError = "Algo deu errado. Tente novamente."

// NewApp builds the Fiber app with views, middleware and every route.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	var engine *html.Engine
	if cfg.TemplatesDir != "" {
		engine = html.New(cfg.TemplatesDir, ".html")
		engine.Reload(true)
	} else {
		engine = html.NewFileSystem(http.FS(web.Templates()), ".html")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		Views:                 engine,
		BodyLimit:             1 << 20, // 1 MiB
		DisableStartupMessage: cfg.Env != "development",
		ErrorHandler:          errorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Output: applog.Writer(),
		Format: `{"kind":"access","time":"${time}","req_id":"${locals:requestid}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}"}` + "\n",
	}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return cfg.RateLimit == 0 || c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.hit", nil)
			return renderError(c, fiber.StatusTooManyRequests, "Muitas requisições. Aguarde um instante.")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return renderError(c, fiber.StatusForbidden, "Falha na verificação de segurança. Recarregue a página e tente novamente.")
		},
	}))

	// ---------- Pages ----------
	app.Get("/", deps.StockHandler.Index)
	app.Post("/adicionar", deps.StockHandler.Add)
	app.Post("/remover", deps.StockHandler.Remove)
	app.Get("/historico", deps.HistoryHandler.List)
	app.Get("/historico.csv", deps.HistoryHandler.ExportCSV)

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Get("/itens", deps.APIHandler.Items)
	api.Get("/itens/:id", deps.APIHandler.Item)
	api.Get("/movimentacoes", deps.APIHandler.Movements)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := deps.DB.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "health.db.fail", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Use(func(c *fiber.Ctx) error {
		return renderError(c, fiber.StatusNotFound, "Página não encontrada.")
	})

	return app
}

// errorHandler keeps the status of a *fiber.Error and never shows internals
// of a 5xx to the client.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := genericError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := renderError(c, code, msg); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
