package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	steve = uuid.MustParse("5f0c6a9e-8d1b-4f3a-9c2e-1a2b3c4d5e6f")
	alex  = uuid.MustParse("0a9b8c7d-6e5f-4a3b-8c2d-1e0f9a8b7c6d")
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSnapshot() *Snapshot {
	at := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	return &Snapshot{
		Version: SnapshotVersion,
		SavedAt: at,
		Prices: []PriceEntry{
			{InstrumentID: "GOLDCO", Current: d("1025.00"), Previous: d("1000"), UpdatedAt: at},
			{InstrumentID: "IRONWK", Current: d("21.37"), Previous: d("20"), UpdatedAt: at},
		},
		Holdings: []HoldingEntry{
			{Player: alex, InstrumentID: "IRONWK", Quantity: 3},
			{Player: steve, InstrumentID: "GOLDCO", Quantity: 12},
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := NewSQLiteStore(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"sqlite": sq,
		"file":   NewFileStore(filepath.Join(dir, "state.json.zst")),
	}
}

func assertSnapshotEqual(t *testing.T, want, got *Snapshot) {
	t.Helper()
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.SavedAt.Equal(got.SavedAt), "saved_at %s != %s", want.SavedAt, got.SavedAt)

	require.Len(t, got.Prices, len(want.Prices))
	for i := range want.Prices {
		assert.Equal(t, want.Prices[i].InstrumentID, got.Prices[i].InstrumentID)
		assert.True(t, want.Prices[i].Current.Equal(got.Prices[i].Current), "current %s", got.Prices[i].InstrumentID)
		assert.True(t, want.Prices[i].Previous.Equal(got.Prices[i].Previous), "previous %s", got.Prices[i].InstrumentID)
		assert.True(t, want.Prices[i].UpdatedAt.Equal(got.Prices[i].UpdatedAt))
	}
	assert.ElementsMatch(t, want.Holdings, got.Holdings)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSnapshot()
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assertSnapshotEqual(t, want, got)
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, sampleSnapshot()))

			next := sampleSnapshot()
			next.Prices = next.Prices[:1]
			next.Holdings = nil
			require.NoError(t, s.Save(ctx, next))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, got.Prices, 1)
			assert.Empty(t, got.Holdings)
		})
	}
}

func TestStore_Empty(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(context.Background())
			assert.ErrorIs(t, err, ErrNoSnapshot)
		})
	}
}

func TestStore_RefusesNewerVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			snap := sampleSnapshot()
			snap.Version = SnapshotVersion + 1
			require.NoError(t, s.Save(ctx, snap))

			_, err := s.Load(ctx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported snapshot version")
		})
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd at all"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestFileStore_NoTempLeftBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "state.json.zst"))
	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, s.Save(context.Background(), sampleSnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json.zst", entries[0].Name())
}

func TestOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open("sqlite", filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open("file", filepath.Join(dir, "a.zst"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open("redis", "")
	assert.Error(t, err)
}
