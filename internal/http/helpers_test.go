package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"stockledger/internal/config"
	"stockledger/internal/http/handlers"
	applog "stockledger/internal/log"
	"stockledger/internal/repos"
)

type logEntry struct {
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Status int            `json:"status"`
	ReqID  string         `json:"req_id"`
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(l.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func (l *lockedBuf) find(action string) (logEntry, bool) {
	for _, e := range l.entries() {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

type testEnv struct {
	app  *fiber.App
	deps *handlers.Deps
	logs *lockedBuf
	csrf string
}

func testConfig() config.Config {
	return config.Config{
		Env:      "test",
		AppName:  "stockledger-test",
		DBDriver: repos.DriverSQLite,
		DBDSN:    ":memory:",
	}
}

// newTestEnv builds the real app on an in-memory database and captures its logs.
func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, f := range tweak {
		f(&cfg)
	}

	logs := &lockedBuf{}
	applog.SetOutput(logs)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db)
	return &testEnv{app: handlers.NewApp(cfg, deps), deps: deps, logs: logs}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

// token fetches a CSRF token the way a browser would: from the cookie set on GET /.
func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	if e.csrf != "" {
		return e.csrf
	}
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			e.csrf = c.Value
		}
	}
	require.NotEmpty(t, e.csrf, "csrf cookie missing")
	return e.csrf
}

func (e *testEnv) post(t *testing.T, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	tok := e.token(t)
	form.Set("csrf", tok)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	return e.do(t, req)
}

func strconvID(id int64) string { return strconv.FormatInt(id, 10) }
