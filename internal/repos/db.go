package repos

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB connects to the configured backend and creates the schema if needed.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite, "":
		db, err = sqlx.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		// An in-memory database lives and dies with its connection.
		if isMemoryDSN(dsn) {
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(25)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign keys, waits on a busy database instead of failing,
// and opens every transaction with BEGIN IMMEDIATE so writers are serialised.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "stockledger.db"
	}
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func isPostgres(q sqlx.ExtContext) bool {
	return q.DriverName() == "pgx"
}

func ensureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if isPostgres(db) {
		schema = postgresSchema
	}
	ctx := context.Background()
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const sqliteSchema = `
-- Stock lines
CREATE TABLE IF NOT EXISTS item(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  nome TEXT NOT NULL CHECK (nome <> ''),
  nome_busca TEXT NOT NULL,
  quantidade INTEGER NOT NULL DEFAULT 0 CHECK (quantidade >= 0),
  lote TEXT NOT NULL DEFAULT '',
  data_entrada DATE,
  data_validade DATE,
  stock_key TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_item_validade ON item(data_validade);

-- Ledger
CREATE TABLE IF NOT EXISTS movimentacao(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  item_id INTEGER NOT NULL REFERENCES item(id) ON DELETE RESTRICT,
  tipo TEXT NOT NULL CHECK (tipo IN ('Entrada','Saída')),
  quantidade INTEGER NOT NULL CHECK (quantidade > 0),
  usuario TEXT,
  data TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movimentacao_item ON movimentacao(item_id);
CREATE INDEX IF NOT EXISTS idx_movimentacao_data ON movimentacao(data);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS item(
  id BIGSERIAL PRIMARY KEY,
  nome TEXT NOT NULL CHECK (nome <> ''),
  nome_busca TEXT NOT NULL,
  quantidade INTEGER NOT NULL DEFAULT 0 CHECK (quantidade >= 0),
  lote TEXT NOT NULL DEFAULT '',
  data_entrada DATE,
  data_validade DATE,
  stock_key TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_item_validade ON item(data_validade);

CREATE TABLE IF NOT EXISTS movimentacao(
  id BIGSERIAL PRIMARY KEY,
  item_id BIGINT NOT NULL REFERENCES item(id) ON DELETE RESTRICT,
  tipo TEXT NOT NULL CHECK (tipo IN ('Entrada','Saída')),
  quantidade INTEGER NOT NULL CHECK (quantidade > 0),
  usuario TEXT,
  data TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movimentacao_item ON movimentacao(item_id);
CREATE INDEX IF NOT EXISTS idx_movimentacao_data ON movimentacao(data);
`
