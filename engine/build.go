package engine

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/stockmarket/config"
	"github.com/rustyeddy/stockmarket/economy"
	"github.com/rustyeddy/stockmarket/journal"
	"github.com/rustyeddy/stockmarket/persist"
	"github.com/rustyeddy/stockmarket/sim"
)

// FromConfig builds an engine with the storage, journal and price model
// named in cfg. A nil econ gets an in-memory economy opening every player
// at economy.starting_balance.
func FromConfig(cfg *config.Config, econ economy.Provider, opts ...Option) (*Engine, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	src, err := sim.NewSource(cfg.Market.Distribution, cfg.Market.Seed)
	if err != nil {
		return nil, err
	}
	if econ == nil {
		econ = economy.NewMemory(cfg.StartingBalance())
	}

	store, err := persist.Open(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	j, err := OpenJournal(cfg.Journal)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	e, err := New(Params{
		Catalog:          cat,
		Bounds:           cfg.Bounds(),
		Store:            store,
		Economy:          econ,
		Source:           src,
		Interval:         cfg.Interval(),
		AutosaveInterval: cfg.AutosaveInterval(),
	}, append([]Option{WithJournal(j)}, opts...)...)
	if err != nil {
		return nil, errors.Join(err, store.Close(), j.Close())
	}
	return e, nil
}

// OpenJournal returns the journal selected by jc.
func OpenJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return journal.Discard{}, nil
	case "csv":
		return journal.NewCSV(jc.TransactionsFile, jc.PricesFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}
