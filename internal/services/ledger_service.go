package services

import (
	"context"
	"errors"
	"strings"

	"stockledger/internal/domain"
	"stockledger/internal/repos"
)

// LedgerService owns the two stock-changing operations and the read views.
type LedgerService struct {
	Items     *repos.ItemRepo
	Movements *repos.MovementRepo
	Tx        *repos.TxRunner
}

func NewLedgerService(items *repos.ItemRepo, movs *repos.MovementRepo, tx *repos.TxRunner) *LedgerService {
	return &LedgerService{Items: items, Movements: movs, Tx: tx}
}

// StockEntry is one inbound delivery.
type StockEntry struct {
	Name       string
	Quantity   int
	Lot        string
	EntryDate  domain.Date
	ExpiryDate domain.Date
}

// AddStock records an inbound movement, creating the stock line if no line with the
// same name, lot and dates exists yet. Item update and movement commit together.
func (s *LedgerService) AddStock(ctx context.Context, in StockEntry) (domain.Item, domain.Movement, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Lot = strings.TrimSpace(in.Lot)
	if in.Name == "" {
		return domain.Item{}, domain.Movement{}, domain.Invalid("nome", "name is required")
	}
	if in.Quantity <= 0 {
		return domain.Item{}, domain.Movement{}, domain.Invalid("quantidade", "quantity must be a positive integer")
	}

	candidate := domain.Item{
		Name:       in.Name,
		Quantity:   in.Quantity,
		Lot:        in.Lot,
		EntryDate:  in.EntryDate,
		ExpiryDate: in.ExpiryDate,
	}
	var (
		item domain.Item
		mov  domain.Movement
	)
	err := s.Tx.Run(ctx, func(items *repos.ItemRepo, movs *repos.MovementRepo) error {
		var err error
		item, err = upsertLine(ctx, items, candidate)
		if err != nil {
			return err
		}
		mov = domain.Movement{ItemID: item.ID, Kind: domain.Inbound, Quantity: in.Quantity}
		return movs.Create(ctx, &mov)
	})
	if err != nil {
		return domain.Item{}, domain.Movement{}, domain.Storage("add stock", err)
	}
	mov.ItemName, mov.ItemLot = item.Name, item.Lot
	return item, mov, nil
}

// upsertLine adds candidate.Quantity to the matching line, or inserts candidate.
// Must run inside a transaction.
func upsertLine(ctx context.Context, items *repos.ItemRepo, candidate domain.Item) (domain.Item, error) {
	key := candidate.Key()
	existing, err := items.GetByKey(ctx, key, true)
	if errors.Is(err, domain.ErrNotFound) {
		id, inserted, err := items.InsertIfAbsent(ctx, candidate)
		if err != nil {
			return domain.Item{}, err
		}
		if inserted {
			candidate.ID = id
			return candidate, nil
		}
		// Lost the insert race; the winner's row is visible now.
		existing, err = items.GetByKey(ctx, key, true)
		if err != nil {
			return domain.Item{}, err
		}
	} else if err != nil {
		return domain.Item{}, err
	}

	if err := items.Increment(ctx, existing.ID, candidate.Quantity); err != nil {
		return domain.Item{}, err
	}
	existing.Quantity += candidate.Quantity
	return existing, nil
}

// RemoveStock records an outbound movement of quantity units taken by actor.
// Returns domain.ErrNotFound for an unknown item and domain.ErrInsufficientStock
// when fewer units are on hand; in both cases nothing is written.
func (s *LedgerService) RemoveStock(ctx context.Context, itemID int64, quantity int, actor string) (domain.Item, domain.Movement, error) {
	if itemID <= 0 {
		return domain.Item{}, domain.Movement{}, domain.Invalid("id", "item id must be a positive integer")
	}
	if quantity <= 0 {
		return domain.Item{}, domain.Movement{}, domain.Invalid("quantidade", "quantity must be a positive integer")
	}
	actor = strings.TrimSpace(actor)

	var (
		item domain.Item
		mov  domain.Movement
	)
	err := s.Tx.Run(ctx, func(items *repos.ItemRepo, movs *repos.MovementRepo) error {
		var err error
		item, err = items.Get(ctx, itemID, true)
		if err != nil {
			return err
		}
		if item.Quantity < quantity {
			return domain.ErrInsufficientStock
		}
		if err := items.Decrement(ctx, itemID, quantity); err != nil {
			return err
		}
		item.Quantity -= quantity
		mov = domain.Movement{ItemID: itemID, Kind: domain.Outbound, Quantity: quantity, Actor: actor}
		return movs.Create(ctx, &mov)
	})
	if err != nil {
		return domain.Item{}, domain.Movement{}, domain.Storage("remove stock", err)
	}
	mov.ItemName, mov.ItemLot = item.Name, item.Lot
	return item, mov, nil
}

// GetItem returns one stock line.
func (s *LedgerService) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	it, err := s.Items.Get(ctx, id, false)
	if err != nil {
		return domain.Item{}, domain.Storage("get item", err)
	}
	return it, nil
}

// ListItems returns the stock list, optionally filtered by a name substring.
func (s *LedgerService) ListItems(ctx context.Context, filter string) ([]domain.Item, error) {
	items, err := s.Items.List(ctx, strings.TrimSpace(filter))
	if err != nil {
		return nil, domain.Storage("list items", err)
	}
	return items, nil
}

// ListMovements returns the movement history, newest first.
func (s *LedgerService) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	movs, err := s.Movements.List(ctx)
	if err != nil {
		return nil, domain.Storage("list movements", err)
	}
	return movs, nil
}
