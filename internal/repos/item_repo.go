package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"

	"stockledger/internal/domain"
)

// ItemRepo persists stock lines. It works on the pool or inside a transaction.
type ItemRepo struct{ q sqlx.ExtContext }

func NewItemRepo(q sqlx.ExtContext) *ItemRepo { return &ItemRepo{q: q} }

const itemColumns = `id, nome, quantidade, lote, data_entrada, data_validade`

// forUpdate locks the selected row until the transaction ends. SQLite has no row
// locks; its transactions are opened IMMEDIATE instead (see sqliteDSN).
func (r *ItemRepo) forUpdate(lock bool) string {
	if lock && isPostgres(r.q) {
		return " FOR UPDATE"
	}
	return ""
}

// Get returns the item with id, or domain.ErrNotFound.
func (r *ItemRepo) Get(ctx context.Context, id int64, lock bool) (domain.Item, error) {
	var it domain.Item
	err := sqlx.GetContext(ctx, r.q, &it, r.q.Rebind(`
		SELECT `+itemColumns+`
		FROM item
		WHERE id = ?`+r.forUpdate(lock)), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// GetByKey finds the stock line matching the natural key, or domain.ErrNotFound.
func (r *ItemRepo) GetByKey(ctx context.Context, key domain.StockKey, lock bool) (domain.Item, error) {
	var it domain.Item
	err := sqlx.GetContext(ctx, r.q, &it, r.q.Rebind(`
		SELECT `+itemColumns+`
		FROM item
		WHERE stock_key = ?`+r.forUpdate(lock)), string(key))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get item by key: %w", err)
	}
	return it, nil
}

// InsertIfAbsent creates the item unless its natural key already exists.
// inserted is false when another writer created the same stock line first.
func (r *ItemRepo) InsertIfAbsent(ctx context.Context, it domain.Item) (id int64, inserted bool, err error) {
	err = r.q.QueryRowxContext(ctx, r.q.Rebind(`
		INSERT INTO item(nome, nome_busca, quantidade, lote, data_entrada, data_validade, stock_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stock_key) DO NOTHING
		RETURNING id
	`), it.Name, Fold(it.Name), it.Quantity, it.Lot, it.EntryDate, it.ExpiryDate, string(it.Key())).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert item: %w", err)
	}
	return id, true, nil
}

// Increment adds "by" units to the item.
func (r *ItemRepo) Increment(ctx context.Context, id int64, by int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE item SET quantidade = quantidade + ? WHERE id = ?
	`), by, id)
	if err != nil {
		return fmt.Errorf("increment item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Decrement subtracts "by" units only if enough stock exists.
// Returns domain.ErrInsufficientStock otherwise.
func (r *ItemRepo) Decrement(ctx context.Context, id int64, by int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE item
		SET quantidade = quantidade - ?
		WHERE id = ? AND quantidade >= ?
	`), by, id, by)
	if err != nil {
		return fmt.Errorf("decrement item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// List returns items whose name contains filter (case-insensitive; empty matches all),
// ordered by expiry date with undated items last.
func (r *ItemRepo) List(ctx context.Context, filter string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM item`
	var args []any
	if filter != "" {
		query += ` WHERE nome_busca LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(Fold(filter))+"%")
	}
	query += ` ORDER BY data_validade IS NULL, data_validade, nome, id`

	items := []domain.Item{}
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Fold normalises text for case-insensitive matching.
// A Caser is stateful, so each call builds its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
