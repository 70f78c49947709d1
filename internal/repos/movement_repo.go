package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockledger/internal/domain"
)

// MovementRepo appends to and reads the movement ledger.
type MovementRepo struct{ q sqlx.ExtContext }

func NewMovementRepo(q sqlx.ExtContext) *MovementRepo { return &MovementRepo{q: q} }

type movementRow struct {
	ID       int64     `db:"id"`
	ItemID   int64     `db:"item_id"`
	Kind     string    `db:"tipo"`
	Quantity int       `db:"quantidade"`
	Actor    string    `db:"usuario"`
	At       Timestamp `db:"data"`
	ItemName string    `db:"item_nome"`
	ItemLot  string    `db:"item_lote"`
}

func (m movementRow) toDomain() domain.Movement {
	return domain.Movement{
		ID:        m.ID,
		ItemID:    m.ItemID,
		Kind:      domain.MovementKind(m.Kind),
		Quantity:  m.Quantity,
		Actor:     m.Actor,
		Timestamp: m.At.Time,
		ItemName:  m.ItemName,
		ItemLot:   m.ItemLot,
	}
}

// Create inserts mov and fills in its id. A zero timestamp is set to now (UTC).
func (r *MovementRepo) Create(ctx context.Context, mov *domain.Movement) error {
	if mov.Timestamp.IsZero() {
		mov.Timestamp = time.Now().UTC()
	}
	mov.Timestamp = mov.Timestamp.UTC().Truncate(time.Microsecond)

	var actor *string
	if mov.Actor != "" {
		actor = &mov.Actor
	}
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(`
		INSERT INTO movimentacao(item_id, tipo, quantidade, usuario, data)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), mov.ItemID, string(mov.Kind), mov.Quantity, actor, Timestamp{Time: mov.Timestamp}).Scan(&mov.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

const movementSelect = `
	SELECT m.id, m.item_id, m.tipo, m.quantidade, COALESCE(m.usuario, '') AS usuario, m.data,
	       i.nome AS item_nome, i.lote AS item_lote
	FROM movimentacao m
	JOIN item i ON i.id = m.item_id`

// List returns the whole ledger, newest first.
func (r *MovementRepo) List(ctx context.Context) ([]domain.Movement, error) {
	var rows []movementRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, movementSelect+`
		ORDER BY m.data DESC, m.id DESC`); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return toMovements(rows), nil
}

// ListByItem returns the ledger of one item, newest first.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID int64) ([]domain.Movement, error) {
	var rows []movementRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(movementSelect+`
		WHERE m.item_id = ?
		ORDER BY m.data DESC, m.id DESC`), itemID); err != nil {
		return nil, fmt.Errorf("list movements of item %d: %w", itemID, err)
	}
	return toMovements(rows), nil
}

func toMovements(rows []movementRow) []domain.Movement {
	out := make([]domain.Movement, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out
}
