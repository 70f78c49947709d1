package log

import (
	"io"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects format, level and an optional rotating file sink.
type Options struct {
	Env   string // development: human-readable console; anything else: JSON
	Level string // trace, debug, info, warn, error
	File  string // empty: stdout only
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	sink   io.Writer = os.Stdout
)

// Setup builds the process logger and makes it the zerolog global too.
func Setup(o Options) zerolog.Logger {
	var out io.Writer = os.Stdout
	if o.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	if o.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}
	l := zerolog.New(out).Level(parseLevel(o.Level)).With().Timestamp().Logger()
	setLogger(l, out)
	zlog.Logger = l
	return l
}

// SetOutput sends JSON lines to w. Tests use it to capture events.
func SetOutput(w io.Writer) {
	setLogger(zerolog.New(w).With().Timestamp().Logger(), w)
}

func setLogger(l zerolog.Logger, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger, sink = l, w
}

// Logger returns the current process logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// Writer is the raw sink, for the HTTP access log.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func write(e *zerolog.Event, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e = e.Str("kind", kind).Str("action", action)
	if c != nil {
		e = e.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.Str("req_id", rid)
		}
	}
	if err != nil {
		e = e.Err(err)
	}
	if len(fields) > 0 {
		e = e.Dict("fields", zerolog.Dict().Fields(fields))
	}
	e.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), "info", c, action, nil, fields)
}

// Audit records a state change to the ledger.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Warn(), "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(Logger().Error(), "error", c, action, err, fields)
}
