package services

import (
	"context"

	"stockledger/internal/domain"
)

// SeedIfEmpty loads a few demo stock lines into an empty ledger.
// It goes through AddStock/RemoveStock so the history matches the stock list.
// Returns true when data was inserted.
func (s *LedgerService) SeedIfEmpty(ctx context.Context) (bool, error) {
	existing, err := s.ListItems(ctx, "")
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	entries := []StockEntry{
		{Name: "Leite integral", Quantity: 24, Lot: "L2401", EntryDate: domain.MustDate("2024-01-05"), ExpiryDate: domain.MustDate("2024-02-05")},
		{Name: "Arroz 5kg", Quantity: 10, Lot: "A-77", EntryDate: domain.MustDate("2024-01-08"), ExpiryDate: domain.MustDate("2025-01-08")},
		{Name: "Sabão em pó", Quantity: 6, EntryDate: domain.MustDate("2024-01-10")},
	}
	var first domain.Item
	for i, e := range entries {
		it, _, err := s.AddStock(ctx, e)
		if err != nil {
			return false, err
		}
		if i == 0 {
			first = it
		}
	}
	if _, _, err := s.RemoveStock(ctx, first.ID, 4, "demo"); err != nil {
		return false, err
	}
	return true, nil
}
