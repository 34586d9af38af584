package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockmarket/config"
	"github.com/rustyeddy/stockmarket/engine"
	"github.com/rustyeddy/stockmarket/persist"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		journalDBPath = ""
	})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(dir, "state.db")
	cfg.Journal.DBPath = filepath.Join(dir, "journal.db")
	path := filepath.Join(dir, "market.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path
}

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds(time.UTC, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(time.UTC, "10/03/2024")
	assert.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "market.yaml")
	require.NoError(t, execute(t, "config", "init", "-o", out))
	require.NoError(t, execute(t, "config", "validate", "-f", out))
}

func TestSimulate(t *testing.T) {
	path := writeConfig(t)
	require.NoError(t, execute(t, "simulate", "-f", path, "-n", "5", "--seed", "3"))
	assert.Error(t, execute(t, "simulate", "-f", path, "-n", "0"))
}

func TestAdminSetAmountSaves(t *testing.T) {
	path := writeConfig(t)
	player := "5f0c6a9e-8d1b-4f3a-9c2e-1a2b3c4d5e6f"

	require.NoError(t, execute(t, "admin", "set-price", "GOLDCO", "1250", "-f", path))
	require.NoError(t, execute(t, "admin", "set-amount", player, "GOLDCO", "7", "-f", path))
	assert.Error(t, execute(t, "admin", "set-amount", player, "NOPE", "7", "-f", path))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	store, err := persist.Open(cfg.Storage.Type, cfg.Storage.Path)
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Holdings, 1)
	assert.Equal(t, int64(7), snap.Holdings[0].Quantity)
	for _, p := range snap.Prices {
		if p.InstrumentID == "GOLDCO" {
			assert.Equal(t, "1250", p.Current.String())
		}
	}

	require.NoError(t, execute(t, "prices", "-f", path))
	require.NoError(t, execute(t, "holdings", "-f", path, player))
	require.NoError(t, execute(t, "journal", "player", player, "-f", path))
}

func TestReloadCatalogFromConfig(t *testing.T) {
	path := writeConfig(t)
	configPath = path
	t.Cleanup(func() { configPath = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	e, err := engine.FromConfig(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	e.Open(context.Background())

	cfg.Instruments = append(cfg.Instruments, config.InstrumentConfig{ID: "OILRIG", BasePrice: 80})
	require.NoError(t, cfg.SaveToFile(path))

	rep, err := reloadCatalog(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"OILRIG"}, rep.Seeded)
	assert.True(t, e.Catalog().Has("OILRIG"))
	price, err := e.CurrentPrice("OILRIG")
	require.NoError(t, err)
	assert.Equal(t, "80", price.String())

	cfg.Instruments = nil
	require.NoError(t, cfg.SaveToFile(path))
	_, err = reloadCatalog(e)
	assert.Error(t, err)
	assert.True(t, e.Catalog().Has("OILRIG"))
}
