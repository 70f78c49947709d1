package handlers

import (
	"github.com/jmoiron/sqlx"

	"stockledger/internal/repos"
	"stockledger/internal/services"
)

type Deps struct {
	DB             *sqlx.DB
	Ledger         *services.LedgerService
	StockHandler   *StockHandler
	HistoryHandler *HistoryHandler
	APIHandler     *APIHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	itemRepo := repos.NewItemRepo(db)
	movRepo := repos.NewMovementRepo(db)
	txRunner := repos.NewTxRunner(db)

	ledger := services.NewLedgerService(itemRepo, movRepo, txRunner)

	return &Deps{
		DB:             db,
		Ledger:         ledger,
		StockHandler:   &StockHandler{Ledger: ledger},
		HistoryHandler: &HistoryHandler{Ledger: ledger},
		APIHandler:     &APIHandler{Ledger: ledger},
	}
}
