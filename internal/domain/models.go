package domain

import (
	"strings"
	"time"
)

// MovementKind is the direction of a stock movement.
type MovementKind string

const (
	Inbound  MovementKind = "Entrada"
	Outbound MovementKind = "Saída"
)

// Item is a stock line: one (name, lot, entry date, expiry date) tuple and its on-hand quantity.
type Item struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"nome" json:"name"`
	Quantity   int    `db:"quantidade" json:"quantity"`
	Lot        string `db:"lote" json:"lot,omitempty"`
	EntryDate  Date   `db:"data_entrada" json:"entryDate"`
	ExpiryDate Date   `db:"data_validade" json:"expiryDate"`
}

// Key returns the natural deduplication key of the item.
func (i Item) Key() StockKey {
	return NewStockKey(i.Name, i.Lot, i.EntryDate, i.ExpiryDate)
}

// Movement is an append-only ledger entry against one item.
type Movement struct {
	ID        int64        `db:"id" json:"id"`
	ItemID    int64        `db:"item_id" json:"itemId"`
	Kind      MovementKind `db:"tipo" json:"kind"`
	Quantity  int          `db:"quantidade" json:"quantity"`
	Actor     string       `db:"usuario" json:"actor,omitempty"`
	Timestamp time.Time    `db:"data" json:"timestamp"`

	// Joined from item for the history view; not persisted on the movement.
	ItemName string `db:"item_nome" json:"itemName,omitempty"`
	ItemLot  string `db:"item_lote" json:"itemLot,omitempty"`
}

// StockKey is the storage form of the (name, lot, entryDate, expiryDate) tuple.
type StockKey string

const keySep = "\x1f"

// NewStockKey joins the tuple with the ASCII unit separator, which cannot appear in form input.
func NewStockKey(name, lot string, entry, expiry Date) StockKey {
	return StockKey(strings.Join([]string{name, lot, entry.String(), expiry.String()}, keySep))
}
